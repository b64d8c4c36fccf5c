package core

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "INCOME"
	Expense TransactionKind = "EXPENSE"
)

type (
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Profile is an isolated budget context. At most one profile is active
	// at a time, enforced by the activation operation.
	Profile struct {
		ID          int64
		Name        string
		Description string
		Active      bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Category groups transactions of one kind within a profile.
	Category struct {
		ID          int64
		ProfileID   int64
		Kind        TransactionKind
		Name        string
		Description string
		Color       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Transaction is a single recorded money movement. CategoryID is zero
	// when the category has been deleted out from under it.
	Transaction struct {
		ID          int64
		ProfileID   int64
		Kind        TransactionKind
		Amount      Money
		Description string
		Date        Date
		CategoryID  int64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// SavingsTarget is a goal with a date window and an allocation
	// percentage applied to incoming cash. Accumulated is a materialized
	// running total mutated only by the allocation engine.
	SavingsTarget struct {
		ID                int64
		ProfileID         int64
		Name              string
		Description       string
		Target            Money
		Accumulated       Money
		StartDate         Date
		TargetDate        Date
		AllocationPercent int64
		Active            bool
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}

	// Allocation links one income transaction to one savings target for a
	// computed amount. Its lifecycle is owned by the allocation engine.
	Allocation struct {
		ID            int64
		TransactionID int64
		TargetID      int64
		ProfileID     int64
		Amount        Money
		CreatedAt     time.Time
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNameTaken       = errors.New("name already in use")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidPercent  = errors.New("allocation percent must be between 0 and 100")
	ErrMissingCategory = errors.New("missing category")
	ErrMissingProfile  = errors.New("missing profile")
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day (UTC midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if len(p.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if c.ProfileID == 0 {
		return ErrMissingProfile
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if c.Color != "" && !colorRe.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.ProfileID == 0 {
		return ErrMissingProfile
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.CategoryID == 0 {
		return ErrMissingCategory
	}
	return nil
}

func (st SavingsTarget) Validate() error {
	if st.ProfileID == 0 {
		return ErrMissingProfile
	}
	if strings.TrimSpace(st.Name) == "" {
		return ErrEmptyName
	}
	if len(st.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := st.Target.Validate(); err != nil {
		return err
	}
	if st.AllocationPercent < 0 || st.AllocationPercent > 100 {
		return ErrInvalidPercent
	}
	if err := st.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if err := st.TargetDate.Validate(); err != nil {
		return errors.New("invalid target date: " + err.Error())
	}
	if st.TargetDate.Before(st.StartDate.Time) {
		return errors.New("target date must not be before start date")
	}
	return nil
}

// Progress returns the reached percentage of the target, uncapped. Callers
// rendering it cap at 100 themselves.
func (st SavingsTarget) Progress() float64 {
	if st.Target.Cents <= 0 {
		return 0
	}
	return float64(st.Accumulated.Cents) / float64(st.Target.Cents) * 100
}

// DaysRemaining returns whole days until the target date, rounded up.
// Negative when the target date has passed.
func (st SavingsTarget) DaysRemaining(now time.Time) int {
	return int(math.Ceil(st.TargetDate.Sub(now).Hours() / 24))
}
