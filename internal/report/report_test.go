package report

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

type reportFixture struct {
	service *Service
	queries *storage.Queries
	profile core.Profile
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	q := repo.Queries()
	profile, err := q.CreateProfile(context.Background(), storage.CreateProfileParams{Name: "Personal", Active: true})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	return &reportFixture{
		service: NewService(q, log.New(log.DefaultConfig())),
		queries: q,
		profile: profile,
	}
}

func (f *reportFixture) seedLedger(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	salary, err := f.queries.CreateCategory(ctx, storage.CreateCategoryParams{
		ProfileID: f.profile.ID, Kind: core.Income, Name: "Salary", Color: "#00aa00",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	food, err := f.queries.CreateCategory(ctx, storage.CreateCategoryParams{
		ProfileID: f.profile.ID, Kind: core.Expense, Name: "Food", Color: "#aa0000",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	rent, err := f.queries.CreateCategory(ctx, storage.CreateCategoryParams{
		ProfileID: f.profile.ID, Kind: core.Expense, Name: "Rent", Color: "#0000aa",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	create := func(kind core.TransactionKind, cents int64, categoryID int64, date time.Time, desc string) {
		t.Helper()
		if _, err := f.queries.CreateTransaction(ctx, storage.CreateTransactionParams{
			ProfileID: f.profile.ID, Kind: kind, AmountCents: cents,
			Description: desc, Date: date, CategoryID: categoryID,
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	create(core.Income, 500_000_00, salary.ID, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "April salary")
	create(core.Expense, 120_000_00, rent.ID, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), "April rent")
	create(core.Expense, 30_000_00, food.ID, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), "Groceries")
	create(core.Expense, 50_000_00, food.ID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "March groceries")
}

func TestDashboard(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	f.seedLedger(t)

	if _, err := f.queries.CreateSavingsTarget(ctx, storage.CreateSavingsTargetParams{
		ProfileID: f.profile.ID, Name: "Emergency fund", TargetCents: 100_000_00,
		AllocationPercent: 10,
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:        time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Active:            true,
	}); err != nil {
		t.Fatalf("CreateSavingsTarget: %v", err)
	}

	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	d, err := f.service.Dashboard(ctx, DashboardParams{ProfileID: f.profile.ID}, now)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.Summary.Income.Cents != 500_000_00 {
		t.Errorf("income = %d", d.Summary.Income.Cents)
	}
	if d.Summary.Expense.Cents != 200_000_00 {
		t.Errorf("expense = %d", d.Summary.Expense.Cents)
	}
	if d.Summary.Balance.Cents != 300_000_00 {
		t.Errorf("balance = %d", d.Summary.Balance.Cents)
	}
	if d.Summary.ExpenseRatio != 40 {
		t.Errorf("expense ratio = %v, want 40", d.Summary.ExpenseRatio)
	}

	if len(d.Targets) != 1 || d.Targets[0].Name != "Emergency fund" {
		t.Fatalf("targets = %+v", d.Targets)
	}
	if d.Targets[0].DaysRemaining < 259 || d.Targets[0].DaysRemaining > 261 {
		t.Errorf("days remaining = %d", d.Targets[0].DaysRemaining)
	}

	if len(d.Trend) != trendMonths {
		t.Fatalf("trend months = %d, want %d", len(d.Trend), trendMonths)
	}
	last := d.Trend[len(d.Trend)-1]
	if last.Year != 2026 || last.Month != 4 {
		t.Errorf("last trend month = %d-%d, want 2026-4", last.Year, last.Month)
	}
	if last.Expense.Cents != 150_000_00 {
		t.Errorf("april expense = %d, want 15000000", last.Expense.Cents)
	}
	march := d.Trend[len(d.Trend)-2]
	if march.Expense.Cents != 50_000_00 {
		t.Errorf("march expense = %d, want 5000000", march.Expense.Cents)
	}

	if len(d.Expense) != 2 {
		t.Fatalf("expense breakdown = %+v", d.Expense)
	}
	if d.Expense[0].Name != "Rent" || d.Expense[0].Share != 60 {
		t.Errorf("top expense category = %+v", d.Expense[0])
	}

	if len(d.Recent) != 4 {
		t.Errorf("recent = %d rows, want 4", len(d.Recent))
	}
}

func TestDashboardUnknownProfile(t *testing.T) {
	f := newReportFixture(t)
	_, err := f.service.Dashboard(context.Background(), DashboardParams{ProfileID: 9999}, time.Now())
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDashboardMonthScoped(t *testing.T) {
	f := newReportFixture(t)
	f.seedLedger(t)

	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	d, err := f.service.Dashboard(context.Background(), DashboardParams{
		ProfileID: f.profile.ID, Year: 2026, Month: 3,
	}, now)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.Summary.Income.Cents != 0 || d.Summary.Expense.Cents != 50_000_00 {
		t.Errorf("march summary = %+v", d.Summary)
	}
	if len(d.Expense) != 1 || d.Expense[0].Name != "Food" {
		t.Errorf("march breakdown = %+v", d.Expense)
	}
	// Trend and recent stay unscoped.
	if len(d.Trend) != trendMonths {
		t.Errorf("trend months = %d", len(d.Trend))
	}
	if len(d.Recent) != 4 {
		t.Errorf("recent = %d rows, want 4", len(d.Recent))
	}
}

func TestPeriodMonth(t *testing.T) {
	f := newReportFixture(t)
	f.seedLedger(t)

	r, err := f.service.Period(context.Background(), PeriodParams{
		ProfileID: f.profile.ID, Year: 2026, Month: 4,
	}, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Period: %v", err)
	}

	if r.Period != "2026-04" {
		t.Errorf("period = %q", r.Period)
	}
	if len(r.Transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(r.Transactions))
	}
	if r.Summary.Income.Cents != 500_000_00 || r.Summary.Expense.Cents != 150_000_00 {
		t.Errorf("summary = %+v", r.Summary)
	}
}

func TestPeriodYear(t *testing.T) {
	f := newReportFixture(t)
	f.seedLedger(t)

	r, err := f.service.Period(context.Background(), PeriodParams{
		ProfileID: f.profile.ID, Year: 2026,
	}, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Period: %v", err)
	}
	if r.Period != "2026" {
		t.Errorf("period = %q", r.Period)
	}
	if len(r.Transactions) != 4 {
		t.Errorf("transactions = %d, want 4", len(r.Transactions))
	}
}

func TestWriteCSV(t *testing.T) {
	f := newReportFixture(t)
	f.seedLedger(t)

	r, err := f.service.Period(context.Background(), PeriodParams{
		ProfileID: f.profile.ID, Year: 2026, Month: 4,
	}, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Period: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"period,2026-04",
		"income,500000.00",
		"expense,150000.00",
		"balance,350000.00",
		"savings_target,0.00",
		"id,date,kind,category,description,amount",
		"April rent",
		"120000.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("csv missing %q\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// 8 summary lines, 1 blank, 1 header, 3 transactions.
	if len(lines) != 13 {
		t.Errorf("csv lines = %d, want 13\n%s", len(lines), out)
	}
}
