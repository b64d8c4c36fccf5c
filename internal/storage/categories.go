package storage

import (
	"context"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

const categoryColumns = `id, profile_id, kind, name, description, color, created_at, updated_at`

type CreateCategoryParams struct {
	ProfileID   int64
	Kind        core.TransactionKind
	Name        string
	Description string
	Color       string
}

func (q *Queries) CreateCategory(ctx context.Context, p CreateCategoryParams) (core.Category, error) {
	const query = `INSERT INTO categories (profile_id, kind, name, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + categoryColumns

	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, query, p.ProfileID, p.Kind, p.Name, p.Description, p.Color, now, now)
	category, err := scanCategory(row)
	if err != nil {
		return core.Category{}, mapConstraintErr(err)
	}
	return category, nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

	category, err := scanCategory(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return core.Category{}, mapRowErr(err)
	}
	return category, nil
}

type ListCategoriesParams struct {
	ProfileID int64
	Kind      core.TransactionKind // empty for both kinds
}

func (q *Queries) ListCategories(ctx context.Context, p ListCategoriesParams) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE profile_id = ?`
	args := []any{p.ProfileID}
	if p.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, p.Kind)
	}
	query += ` ORDER BY name ASC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type UpdateCategoryParams struct {
	ID          int64
	Name        string
	Description string
	Color       string
}

func (q *Queries) UpdateCategory(ctx context.Context, p UpdateCategoryParams) (core.Category, error) {
	const query = `UPDATE categories SET name = ?, description = ?, color = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + categoryColumns

	row := q.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Color, time.Now().UTC(), p.ID)
	category, err := scanCategory(row)
	if err != nil {
		return core.Category{}, mapConstraintErr(mapRowErr(err))
	}
	return category, nil
}

// DeleteCategory removes the category; transactions referencing it keep
// existing with a NULL category (ON DELETE SET NULL).
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	const query = `DELETE FROM categories WHERE id = ?`

	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.ProfileID, &c.Kind, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
