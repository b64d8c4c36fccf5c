package storage

import (
	"context"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

const targetColumns = `id, profile_id, name, description, target_cents, accumulated_cents, allocation_percent, start_date, target_date, active, created_at, updated_at`

type CreateSavingsTargetParams struct {
	ProfileID         int64
	Name              string
	Description       string
	TargetCents       int64
	AllocationPercent int64
	StartDate         time.Time
	TargetDate        time.Time
	Active            bool
}

func (q *Queries) CreateSavingsTarget(ctx context.Context, p CreateSavingsTargetParams) (core.SavingsTarget, error) {
	const query = `INSERT INTO savings_targets (profile_id, name, description, target_cents, accumulated_cents, allocation_percent, start_date, target_date, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)
		RETURNING ` + targetColumns

	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, query,
		p.ProfileID, p.Name, p.Description, p.TargetCents, p.AllocationPercent, p.StartDate, p.TargetDate, p.Active, now, now)
	st, err := scanSavingsTarget(row)
	if err != nil {
		return core.SavingsTarget{}, mapConstraintErr(err)
	}
	return st, nil
}

func (q *Queries) GetSavingsTarget(ctx context.Context, id int64) (core.SavingsTarget, error) {
	const query = `SELECT ` + targetColumns + ` FROM savings_targets WHERE id = ?`

	st, err := scanSavingsTarget(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return core.SavingsTarget{}, mapRowErr(err)
	}
	return st, nil
}

func (q *Queries) ListSavingsTargets(ctx context.Context, profileID int64) ([]core.SavingsTarget, error) {
	const query = `SELECT ` + targetColumns + ` FROM savings_targets
		WHERE profile_id = ?
		ORDER BY created_at ASC, id ASC`

	return q.querySavingsTargets(ctx, query, profileID)
}

// ListActiveAllocationTargets returns the targets that participate in income
// allocation: active with a non-zero percentage.
func (q *Queries) ListActiveAllocationTargets(ctx context.Context, profileID int64) ([]core.SavingsTarget, error) {
	const query = `SELECT ` + targetColumns + ` FROM savings_targets
		WHERE profile_id = ? AND active = 1 AND allocation_percent > 0
		ORDER BY created_at ASC, id ASC`

	return q.querySavingsTargets(ctx, query, profileID)
}

type UpdateSavingsTargetParams struct {
	ID                int64
	Name              string
	Description       string
	TargetCents       int64
	AllocationPercent int64
	StartDate         time.Time
	TargetDate        time.Time
	Active            bool
}

// UpdateSavingsTarget never touches accumulated_cents; that column only moves
// through AddToAccumulated.
func (q *Queries) UpdateSavingsTarget(ctx context.Context, p UpdateSavingsTargetParams) (core.SavingsTarget, error) {
	const query = `UPDATE savings_targets
		SET name = ?, description = ?, target_cents = ?, allocation_percent = ?, start_date = ?, target_date = ?, active = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + targetColumns

	row := q.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.TargetCents, p.AllocationPercent, p.StartDate, p.TargetDate, p.Active, time.Now().UTC(), p.ID)
	st, err := scanSavingsTarget(row)
	if err != nil {
		return core.SavingsTarget{}, mapConstraintErr(mapRowErr(err))
	}
	return st, nil
}

func (q *Queries) DeleteSavingsTarget(ctx context.Context, id int64) error {
	const query = `DELETE FROM savings_targets WHERE id = ?`

	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// AddToAccumulated applies a relative adjustment and returns the new balance
// so callers can detect drift below zero.
func (q *Queries) AddToAccumulated(ctx context.Context, id int64, deltaCents int64) (int64, error) {
	const query = `UPDATE savings_targets
		SET accumulated_cents = accumulated_cents + ?, updated_at = ?
		WHERE id = ?
		RETURNING accumulated_cents`

	var accumulated int64
	err := q.db.QueryRowContext(ctx, query, deltaCents, time.Now().UTC(), id).Scan(&accumulated)
	if err != nil {
		return 0, mapRowErr(err)
	}
	return accumulated, nil
}

func (q *Queries) querySavingsTargets(ctx context.Context, query string, args ...any) ([]core.SavingsTarget, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []core.SavingsTarget
	for rows.Next() {
		st, err := scanSavingsTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, st)
	}
	return targets, rows.Err()
}

func scanSavingsTarget(row rowScanner) (core.SavingsTarget, error) {
	var st core.SavingsTarget
	err := row.Scan(&st.ID, &st.ProfileID, &st.Name, &st.Description, &st.Target.Cents, &st.Accumulated.Cents,
		&st.AllocationPercent, &st.StartDate.Time, &st.TargetDate.Time, &st.Active,
		&st.CreatedAt, &st.UpdatedAt)
	return st, err
}
