package storage

import (
	"context"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

const allocationColumns = `id, transaction_id, target_id, profile_id, amount_cents, created_at`

type CreateAllocationParams struct {
	TransactionID int64
	TargetID      int64
	ProfileID     int64
	AmountCents   int64
}

func (q *Queries) CreateAllocation(ctx context.Context, p CreateAllocationParams) (core.Allocation, error) {
	const query = `INSERT INTO allocations (transaction_id, target_id, profile_id, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + allocationColumns

	row := q.db.QueryRowContext(ctx, query,
		p.TransactionID, p.TargetID, p.ProfileID, p.AmountCents, time.Now().UTC())
	return scanAllocation(row)
}

func (q *Queries) ListAllocationsByTransaction(ctx context.Context, transactionID int64) ([]core.Allocation, error) {
	const query = `SELECT ` + allocationColumns + ` FROM allocations
		WHERE transaction_id = ?
		ORDER BY id ASC`

	return q.queryAllocations(ctx, query, transactionID)
}

func (q *Queries) ListAllocationsByTarget(ctx context.Context, targetID int64) ([]core.Allocation, error) {
	const query = `SELECT ` + allocationColumns + ` FROM allocations
		WHERE target_id = ?
		ORDER BY created_at DESC, id DESC`

	return q.queryAllocations(ctx, query, targetID)
}

func (q *Queries) DeleteAllocationsByTransaction(ctx context.Context, transactionID int64) error {
	const query = `DELETE FROM allocations WHERE transaction_id = ?`

	_, err := q.db.ExecContext(ctx, query, transactionID)
	return err
}

func (q *Queries) queryAllocations(ctx context.Context, query string, args ...any) ([]core.Allocation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []core.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func scanAllocation(row rowScanner) (core.Allocation, error) {
	var a core.Allocation
	err := row.Scan(&a.ID, &a.TransactionID, &a.TargetID, &a.ProfileID, &a.Amount.Cents, &a.CreatedAt)
	return a, err
}
