package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

const profileColumns = `id, name, description, active, created_at, updated_at`

type CreateProfileParams struct {
	Name        string
	Description string
	Active      bool
}

func (q *Queries) CreateProfile(ctx context.Context, p CreateProfileParams) (core.Profile, error) {
	const query = `INSERT INTO profiles (name, description, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + profileColumns

	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Active, now, now)
	profile, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapConstraintErr(err)
	}
	return profile, nil
}

func (q *Queries) GetProfile(ctx context.Context, id int64) (core.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

	profile, err := scanProfile(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return core.Profile{}, mapRowErr(err)
	}
	return profile, nil
}

func (q *Queries) GetActiveProfile(ctx context.Context) (core.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE active = 1 LIMIT 1`

	profile, err := scanProfile(q.db.QueryRowContext(ctx, query))
	if err != nil {
		return core.Profile{}, mapRowErr(err)
	}
	return profile, nil
}

func (q *Queries) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at ASC, id ASC`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type UpdateProfileParams struct {
	ID          int64
	Name        string
	Description string
}

func (q *Queries) UpdateProfile(ctx context.Context, p UpdateProfileParams) (core.Profile, error) {
	const query = `UPDATE profiles SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + profileColumns

	row := q.db.QueryRowContext(ctx, query, p.Name, p.Description, time.Now().UTC(), p.ID)
	profile, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapConstraintErr(mapRowErr(err))
	}
	return profile, nil
}

// DeleteProfile removes the profile; categories, targets, transactions and
// allocations follow via ON DELETE CASCADE.
func (q *Queries) DeleteProfile(ctx context.Context, id int64) error {
	const query = `DELETE FROM profiles WHERE id = ?`

	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeactivateAllProfiles clears the active flag on every profile. Run inside
// the same transaction as ActivateProfile to keep the single-active-profile
// invariant without a window of zero or two active profiles.
func (q *Queries) DeactivateAllProfiles(ctx context.Context) error {
	const query = `UPDATE profiles SET active = 0, updated_at = ? WHERE active = 1`

	_, err := q.db.ExecContext(ctx, query, time.Now().UTC())
	return err
}

func (q *Queries) ActivateProfile(ctx context.Context, id int64) (core.Profile, error) {
	const query = `UPDATE profiles SET active = 1, updated_at = ?
		WHERE id = ?
		RETURNING ` + profileColumns

	row := q.db.QueryRowContext(ctx, query, time.Now().UTC(), id)
	profile, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapRowErr(err)
	}
	return profile, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (core.Profile, error) {
	var p core.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
