// Package report builds the dashboard and period report views on top of the
// aggregation queries, including CSV export.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

const (
	trendMonths        = 6
	recentTransactions = 10
)

type Service struct {
	queries *storage.Queries
	logger  *log.Logger
}

func NewService(queries *storage.Queries, logger *log.Logger) *Service {
	return &Service{
		queries: queries,
		logger:  logger.WithComponent(log.ComponentReport),
	}
}

// MoneyValue pairs raw cents with a fixed two-decimal rendering.
type MoneyValue struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func money(cents int64) MoneyValue {
	return MoneyValue{Cents: cents, Formatted: core.Money{Cents: cents}.String()}
}

type Summary struct {
	Income           MoneyValue `json:"income"`
	Expense          MoneyValue `json:"expense"`
	Balance          MoneyValue `json:"balance"`
	TransactionCount int64      `json:"transaction_count"`
	// ExpenseRatio is expense as a percentage of income, 0 when there is
	// no income.
	ExpenseRatio float64 `json:"expense_ratio"`
}

type TargetProgress struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Target            MoneyValue `json:"target"`
	Accumulated       MoneyValue `json:"accumulated"`
	AllocationPercent int64      `json:"allocation_percent"`
	Progress          float64    `json:"progress"`
	DaysRemaining     int        `json:"days_remaining"`
	Active            bool       `json:"active"`
}

type SavingsSummary struct {
	Target      MoneyValue `json:"target"`
	Accumulated MoneyValue `json:"accumulated"`
	ActiveCount int64      `json:"active_count"`
	// Progress covers all active targets together.
	Progress float64 `json:"progress"`
}

type CategoryBreakdown struct {
	CategoryID int64      `json:"category_id"`
	Name       string     `json:"name"`
	Color      string     `json:"color"`
	Total      MoneyValue `json:"total"`
	Count      int64      `json:"count"`
	// Share of the kind's total, as a percentage.
	Share float64 `json:"share"`
}

type MonthTotals struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Income  MoneyValue `json:"income"`
	Expense MoneyValue `json:"expense"`
	Balance MoneyValue `json:"balance"`
}

type RecentTransaction struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	Amount      MoneyValue `json:"amount"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	Category    string     `json:"category"`
}

// Dashboard is the aggregate view for one profile.
type Dashboard struct {
	ProfileID int64               `json:"profile_id"`
	Summary   Summary             `json:"summary"`
	Savings   SavingsSummary      `json:"savings"`
	Targets   []TargetProgress    `json:"targets"`
	Income    []CategoryBreakdown `json:"income_by_category"`
	Expense   []CategoryBreakdown `json:"expense_by_category"`
	Trend     []MonthTotals       `json:"trend"`
	Recent    []RecentTransaction `json:"recent_transactions"`
}

// DashboardParams selects the profile and an optional window for the
// summary and category breakdowns. Year 0 means all-time; month 0 with a
// year means the whole year. The trend, savings state, and recent list are
// never window-scoped.
type DashboardParams struct {
	ProfileID int64
	Year      int
	Month     int
}

func (p DashboardParams) bounds() (from, to time.Time) {
	if p.Year == 0 {
		return time.Time{}, time.Time{}
	}
	return PeriodParams{Year: p.Year, Month: p.Month}.bounds()
}

func (s *Service) Dashboard(ctx context.Context, p DashboardParams, now time.Time) (Dashboard, error) {
	// The profile must exist; an empty ledger is fine, a bad ID is not.
	if _, err := s.queries.GetProfile(ctx, p.ProfileID); err != nil {
		return Dashboard{}, err
	}

	from, to := p.bounds()

	totals, err := s.queries.SumTransactions(ctx, storage.SumTransactionsParams{
		ProfileID: p.ProfileID, From: from, To: to,
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("sum transactions: %w", err)
	}

	savings, err := s.queries.SumSavingsTargets(ctx, p.ProfileID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("sum savings targets: %w", err)
	}

	targets, err := s.queries.ListSavingsTargets(ctx, p.ProfileID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list savings targets: %w", err)
	}

	income, err := s.categoryBreakdown(ctx, p.ProfileID, core.Income, from, to)
	if err != nil {
		return Dashboard{}, err
	}
	expense, err := s.categoryBreakdown(ctx, p.ProfileID, core.Expense, from, to)
	if err != nil {
		return Dashboard{}, err
	}

	trend, err := s.monthlyTrend(ctx, p.ProfileID, now)
	if err != nil {
		return Dashboard{}, err
	}

	recent, err := s.recent(ctx, p.ProfileID)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		ProfileID: p.ProfileID,
		Summary:   buildSummary(totals),
		Savings:   buildSavingsSummary(savings),
		Targets:   buildTargetProgress(targets, now),
		Income:    income,
		Expense:   expense,
		Trend:     trend,
		Recent:    recent,
	}

	s.logger.DebugContext(ctx, "Built dashboard",
		log.FieldProfileID, p.ProfileID,
		"transactions", totals.Count)
	return d, nil
}

func buildSummary(totals storage.PeriodTotals) Summary {
	s := Summary{
		Income:           money(totals.IncomeCents),
		Expense:          money(totals.ExpenseCents),
		Balance:          money(totals.IncomeCents - totals.ExpenseCents),
		TransactionCount: totals.Count,
	}
	if totals.IncomeCents > 0 {
		s.ExpenseRatio = float64(totals.ExpenseCents) / float64(totals.IncomeCents) * 100
	}
	return s
}

func buildSavingsSummary(totals storage.SavingsTotals) SavingsSummary {
	s := SavingsSummary{
		Target:      money(totals.TargetCents),
		Accumulated: money(totals.AccumulatedCents),
		ActiveCount: totals.Count,
	}
	if totals.TargetCents > 0 {
		s.Progress = float64(totals.AccumulatedCents) / float64(totals.TargetCents) * 100
	}
	return s
}

func buildTargetProgress(targets []core.SavingsTarget, now time.Time) []TargetProgress {
	out := make([]TargetProgress, 0, len(targets))
	for _, st := range targets {
		out = append(out, TargetProgress{
			ID:                st.ID,
			Name:              st.Name,
			Target:            money(st.Target.Cents),
			Accumulated:       money(st.Accumulated.Cents),
			AllocationPercent: st.AllocationPercent,
			Progress:          st.Progress(),
			DaysRemaining:     st.DaysRemaining(now),
			Active:            st.Active,
		})
	}
	return out
}

func (s *Service) categoryBreakdown(ctx context.Context, profileID int64, kind core.TransactionKind, from, to time.Time) ([]CategoryBreakdown, error) {
	rows, err := s.queries.SumByCategory(ctx, storage.SumByCategoryParams{
		ProfileID: profileID, Kind: kind, From: from, To: to,
	})
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}

	var kindTotal int64
	for _, r := range rows {
		kindTotal += r.TotalCents
	}

	out := make([]CategoryBreakdown, 0, len(rows))
	for _, r := range rows {
		b := CategoryBreakdown{
			CategoryID: r.CategoryID,
			Name:       r.Name,
			Color:      r.Color,
			Total:      money(r.TotalCents),
			Count:      r.Count,
		}
		if kindTotal > 0 {
			b.Share = float64(r.TotalCents) / float64(kindTotal) * 100
		}
		out = append(out, b)
	}
	return out, nil
}

// monthlyTrend covers the last trendMonths calendar months ending with the
// month of now.
func (s *Service) monthlyTrend(ctx context.Context, profileID int64, now time.Time) ([]MonthTotals, error) {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]MonthTotals, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		totals, err := s.queries.SumTransactions(ctx, storage.SumTransactionsParams{
			ProfileID: profileID, From: start, To: end,
		})
		if err != nil {
			return nil, fmt.Errorf("sum month %s: %w", start.Format("2006-01"), err)
		}

		out = append(out, MonthTotals{
			Year:    start.Year(),
			Month:   int(start.Month()),
			Income:  money(totals.IncomeCents),
			Expense: money(totals.ExpenseCents),
			Balance: money(totals.IncomeCents - totals.ExpenseCents),
		})
	}
	return out, nil
}

func (s *Service) recent(ctx context.Context, profileID int64) ([]RecentTransaction, error) {
	rows, err := s.queries.ListTransactionsWithCategory(ctx, storage.ListTransactionsParams{
		ProfileID: profileID, Limit: recentTransactions,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}

	out := make([]RecentTransaction, 0, len(rows))
	for _, t := range rows {
		out = append(out, RecentTransaction{
			ID:          t.ID,
			Kind:        string(t.Kind),
			Amount:      money(t.Amount.Cents),
			Description: t.Description,
			Date:        t.Date.Format("2006-01-02"),
			Category:    t.CategoryName,
		})
	}
	return out, nil
}
