package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

const transactionColumns = `id, profile_id, kind, amount_cents, description, date, category_id, created_at, updated_at`

// Backup sync states for the spreadsheet pipeline.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type CreateTransactionParams struct {
	ProfileID   int64
	Kind        core.TransactionKind
	AmountCents int64
	Description string
	Date        time.Time
	CategoryID  int64
}

func (q *Queries) CreateTransaction(ctx context.Context, p CreateTransactionParams) (core.Transaction, error) {
	const query = `INSERT INTO transactions (profile_id, kind, amount_cents, description, date, category_id, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + transactionColumns

	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, query,
		p.ProfileID, p.Kind, p.AmountCents, p.Description, p.Date, nullableID(p.CategoryID), SyncPending, now, now)
	return scanTransaction(row)
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	t, err := scanTransaction(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return core.Transaction{}, mapRowErr(err)
	}
	return t, nil
}

type ListTransactionsParams struct {
	ProfileID int64
	Kind      core.TransactionKind // empty for both kinds
	From      time.Time            // zero for no lower bound
	To        time.Time            // exclusive; zero for no upper bound
	Limit     int64                // 0 for no limit
}

func (q *Queries) ListTransactions(ctx context.Context, p ListTransactionsParams) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE profile_id = ?`
	args := []any{p.ProfileID}
	if p.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, p.Kind)
	}
	if !p.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, p.From)
	}
	if !p.To.IsZero() {
		query += ` AND date < ?`
		args = append(args, p.To)
	}
	query += ` ORDER BY date DESC, id DESC`
	if p.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, p.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

type UpdateTransactionParams struct {
	ID          int64
	Kind        core.TransactionKind
	AmountCents int64
	Description string
	Date        time.Time
	CategoryID  int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, p UpdateTransactionParams) (core.Transaction, error) {
	const query = `UPDATE transactions
		SET kind = ?, amount_cents = ?, description = ?, date = ?, category_id = ?, sync_status = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + transactionColumns

	row := q.db.QueryRowContext(ctx, query,
		p.Kind, p.AmountCents, p.Description, p.Date, nullableID(p.CategoryID), SyncPending, time.Now().UTC(), p.ID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, mapRowErr(err)
	}
	return t, nil
}

// DeleteTransaction removes the transaction; its allocation rows follow via
// ON DELETE CASCADE.
func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	const query = `DELETE FROM transactions WHERE id = ?`

	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// TransactionWithCategory carries the joined category name for export rows.
type TransactionWithCategory struct {
	core.Transaction
	CategoryName string
}

func (q *Queries) GetTransactionWithCategory(ctx context.Context, id int64) (TransactionWithCategory, error) {
	const query = `SELECT t.id, t.profile_id, t.kind, t.amount_cents, t.description, t.date, t.category_id,
			t.created_at, t.updated_at, COALESCE(c.name, '')
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`

	var t TransactionWithCategory
	var categoryID sql.NullInt64
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.ProfileID, &t.Kind, &t.Amount.Cents, &t.Description, &t.Date.Time,
		&categoryID, &t.CreatedAt, &t.UpdatedAt, &t.CategoryName)
	if err != nil {
		return TransactionWithCategory{}, mapRowErr(err)
	}
	t.CategoryID = categoryID.Int64
	return t, nil
}

func (q *Queries) ListTransactionsWithCategory(ctx context.Context, p ListTransactionsParams) ([]TransactionWithCategory, error) {
	query := `SELECT t.id, t.profile_id, t.kind, t.amount_cents, t.description, t.date, t.category_id,
			t.created_at, t.updated_at, COALESCE(c.name, '')
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.profile_id = ?`
	args := []any{p.ProfileID}
	if p.Kind != "" {
		query += ` AND t.kind = ?`
		args = append(args, p.Kind)
	}
	if !p.From.IsZero() {
		query += ` AND t.date >= ?`
		args = append(args, p.From)
	}
	if !p.To.IsZero() {
		query += ` AND t.date < ?`
		args = append(args, p.To)
	}
	query += ` ORDER BY t.date DESC, t.id DESC`
	if p.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, p.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionWithCategory
	for rows.Next() {
		var t TransactionWithCategory
		var categoryID sql.NullInt64
		if err := rows.Scan(
			&t.ID, &t.ProfileID, &t.Kind, &t.Amount.Cents, &t.Description, &t.Date.Time,
			&categoryID, &t.CreatedAt, &t.UpdatedAt, &t.CategoryName); err != nil {
			return nil, err
		}
		t.CategoryID = categoryID.Int64
		out = append(out, t)
	}
	return out, rows.Err()
}

// PendingBackup is the minimal row the backup worker needs to re-enqueue
// transactions that missed their sync message.
type PendingBackup struct {
	ID        int64
	CreatedAt time.Time
}

func (q *Queries) ListPendingBackup(ctx context.Context, limit int64) ([]PendingBackup, error) {
	const query = `SELECT id, created_at FROM transactions
		WHERE sync_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`

	rows, err := q.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingBackup
	for rows.Next() {
		var p PendingBackup
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	return q.setSyncStatus(ctx, id, SyncSynced)
}

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	return q.setSyncStatus(ctx, id, SyncError)
}

func (q *Queries) setSyncStatus(ctx context.Context, id int64, status string) error {
	const query = `UPDATE transactions SET sync_status = ?, updated_at = ? WHERE id = ?`

	res, err := q.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var categoryID sql.NullInt64
	err := row.Scan(&t.ID, &t.ProfileID, &t.Kind, &t.Amount.Cents, &t.Description, &t.Date.Time,
		&categoryID, &t.CreatedAt, &t.UpdatedAt)
	t.CategoryID = categoryID.Int64
	return t, err
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
