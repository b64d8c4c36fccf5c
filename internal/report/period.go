package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

// PeriodParams selects a reporting window. Month 0 means the whole year.
type PeriodParams struct {
	ProfileID int64
	Year      int
	Month     int
}

func (p PeriodParams) bounds() (from, to time.Time) {
	if p.Month == 0 {
		from = time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Label renders the window as "2026" or "2026-04".
func (p PeriodParams) Label() string {
	if p.Month == 0 {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

type ReportRow struct {
	ID          int64      `json:"id"`
	Date        string     `json:"date"`
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      MoneyValue `json:"amount"`
}

// Report is the period view: summary, per-category breakdowns, savings
// state, and every transaction in the window. Savings targets are reported
// as of now, not scoped to the window.
type Report struct {
	ProfileID    int64               `json:"profile_id"`
	Period       string              `json:"period"`
	Summary      Summary             `json:"summary"`
	Savings      SavingsSummary      `json:"savings"`
	Targets      []TargetProgress    `json:"targets"`
	Income       []CategoryBreakdown `json:"income_by_category"`
	Expense      []CategoryBreakdown `json:"expense_by_category"`
	Transactions []ReportRow         `json:"transactions"`
}

func (s *Service) Period(ctx context.Context, p PeriodParams, now time.Time) (Report, error) {
	if _, err := s.queries.GetProfile(ctx, p.ProfileID); err != nil {
		return Report{}, err
	}

	from, to := p.bounds()

	totals, err := s.queries.SumTransactions(ctx, storage.SumTransactionsParams{
		ProfileID: p.ProfileID, From: from, To: to,
	})
	if err != nil {
		return Report{}, fmt.Errorf("sum transactions: %w", err)
	}

	savings, err := s.queries.SumSavingsTargets(ctx, p.ProfileID)
	if err != nil {
		return Report{}, fmt.Errorf("sum savings targets: %w", err)
	}
	targets, err := s.queries.ListSavingsTargets(ctx, p.ProfileID)
	if err != nil {
		return Report{}, fmt.Errorf("list savings targets: %w", err)
	}

	income, err := s.categoryBreakdown(ctx, p.ProfileID, core.Income, from, to)
	if err != nil {
		return Report{}, err
	}
	expense, err := s.categoryBreakdown(ctx, p.ProfileID, core.Expense, from, to)
	if err != nil {
		return Report{}, err
	}

	rows, err := s.queries.ListTransactionsWithCategory(ctx, storage.ListTransactionsParams{
		ProfileID: p.ProfileID, From: from, To: to,
	})
	if err != nil {
		return Report{}, fmt.Errorf("list transactions: %w", err)
	}

	transactions := make([]ReportRow, 0, len(rows))
	for _, t := range rows {
		transactions = append(transactions, ReportRow{
			ID:          t.ID,
			Date:        t.Date.Format("2006-01-02"),
			Kind:        string(t.Kind),
			Category:    t.CategoryName,
			Description: t.Description,
			Amount:      money(t.Amount.Cents),
		})
	}

	s.logger.DebugContext(ctx, "Built period report",
		log.FieldProfileID, p.ProfileID,
		"period", p.Label(),
		"transactions", len(transactions))

	return Report{
		ProfileID:    p.ProfileID,
		Period:       p.Label(),
		Summary:      buildSummary(totals),
		Savings:      buildSavingsSummary(savings),
		Targets:      buildTargetProgress(targets, now),
		Income:       income,
		Expense:      expense,
		Transactions: transactions,
	}, nil
}

// WriteCSV renders the report as a summary block followed by one row per
// transaction.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)

	summary := [][]string{
		{"period", r.Period},
		{"income", r.Summary.Income.Formatted},
		{"expense", r.Summary.Expense.Formatted},
		{"balance", r.Summary.Balance.Formatted},
		{"transactions", strconv.FormatInt(r.Summary.TransactionCount, 10)},
		{"savings_target", r.Savings.Target.Formatted},
		{"savings_accumulated", r.Savings.Accumulated.Formatted},
		{"savings_progress", fmt.Sprintf("%.2f", r.Savings.Progress)},
		{},
		{"id", "date", "kind", "category", "description", "amount"},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv summary: %w", err)
		}
	}

	for _, t := range r.Transactions {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Date,
			t.Kind,
			t.Category,
			t.Description,
			t.Amount.Formatted,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
