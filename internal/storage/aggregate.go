package storage

import (
	"context"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

// PeriodTotals summarises the ledger over a date range.
type PeriodTotals struct {
	IncomeCents  int64
	ExpenseCents int64
	Count        int64
}

type SumTransactionsParams struct {
	ProfileID int64
	From      time.Time // zero for no lower bound
	To        time.Time // exclusive; zero for no upper bound
}

func (q *Queries) SumTransactions(ctx context.Context, p SumTransactionsParams) (PeriodTotals, error) {
	query := `SELECT
			COALESCE(SUM(CASE WHEN kind = 'INCOME' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'EXPENSE' THEN amount_cents ELSE 0 END), 0),
			COUNT(*)
		FROM transactions WHERE profile_id = ?`
	args := []any{p.ProfileID}
	if !p.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, p.From)
	}
	if !p.To.IsZero() {
		query += ` AND date < ?`
		args = append(args, p.To)
	}

	var totals PeriodTotals
	err := q.db.QueryRowContext(ctx, query, args...).Scan(
		&totals.IncomeCents, &totals.ExpenseCents, &totals.Count)
	return totals, err
}

// CategoryTotal is one row of a per-category breakdown. Transactions whose
// category was deleted group under a zero CategoryID with an empty name.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Color      string
	Kind       core.TransactionKind
	TotalCents int64
	Count      int64
}

type SumByCategoryParams struct {
	ProfileID int64
	Kind      core.TransactionKind
	From      time.Time
	To        time.Time
}

func (q *Queries) SumByCategory(ctx context.Context, p SumByCategoryParams) ([]CategoryTotal, error) {
	query := `SELECT COALESCE(t.category_id, 0), COALESCE(c.name, ''), COALESCE(c.color, ''),
			t.kind, SUM(t.amount_cents), COUNT(*)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.profile_id = ? AND t.kind = ?`
	args := []any{p.ProfileID, p.Kind}
	if !p.From.IsZero() {
		query += ` AND t.date >= ?`
		args = append(args, p.From)
	}
	if !p.To.IsZero() {
		query += ` AND t.date < ?`
		args = append(args, p.To)
	}
	query += ` GROUP BY t.category_id, c.name, c.color, t.kind
		ORDER BY SUM(t.amount_cents) DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.Color, &ct.Kind, &ct.TotalCents, &ct.Count); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// SavingsTotals aggregates active targets for the dashboard summary card.
type SavingsTotals struct {
	TargetCents      int64
	AccumulatedCents int64
	Count            int64
}

func (q *Queries) SumSavingsTargets(ctx context.Context, profileID int64) (SavingsTotals, error) {
	const query = `SELECT COALESCE(SUM(target_cents), 0), COALESCE(SUM(accumulated_cents), 0), COUNT(*)
		FROM savings_targets
		WHERE profile_id = ? AND active = 1`

	var totals SavingsTotals
	err := q.db.QueryRowContext(ctx, query, profileID).Scan(
		&totals.TargetCents, &totals.AccumulatedCents, &totals.Count)
	return totals, err
}
