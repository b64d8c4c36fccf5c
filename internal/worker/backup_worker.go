package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tygerearth-labs/finacial-tracker/internal/amqp"
	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/sheets"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

// BackupWorker mirrors ledger changes from SQLite to the spreadsheet journal
type BackupWorker struct {
	storage   *storage.SQLiteRepository
	journal   sheets.JournalWriter
	batchSize int
}

func NewBackupWorker(storage *storage.SQLiteRepository, journal sheets.JournalWriter, batchSize int) *BackupWorker {
	return &BackupWorker{
		storage:   storage,
		journal:   journal,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single backup message from AMQP
func (w *BackupWorker) HandleMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	switch msg.Op {
	case amqp.OpUpsert:
		return w.backupTransaction(ctx, msg.TransactionID)
	case amqp.OpDelete:
		return w.recordDeletion(ctx, msg)
	default:
		// Unknown ops are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Ignoring backup message with unknown op",
			"op", msg.Op,
			"transaction_id", msg.TransactionID)
		return nil
	}
}

// backupTransaction fetches the current row and appends a journal entry.
// The message only carries the ID; the database is the source of truth.
func (w *BackupWorker) backupTransaction(ctx context.Context, transactionID int64) error {
	tx, err := w.storage.Queries().GetTransactionWithCategory(ctx, transactionID)
	if err != nil {
		// Deleted before the upsert was processed; the delete message will
		// carry its own snapshot.
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before backup, skipping",
				"transaction_id", transactionID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	entry := sheets.Entry{
		TransactionID: tx.ID,
		Event:         "upsert",
		Date:          tx.Date.Format("2006-01-02"),
		Kind:          string(tx.Kind),
		AmountCents:   tx.Amount.Cents,
		Category:      tx.CategoryName,
		Description:   tx.Description,
	}

	if _, err := w.journal.Append(ctx, entry); err != nil {
		if markErr := w.storage.Queries().MarkTransactionSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"transaction_id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to journal: %w", err)
	}

	if err := w.storage.Queries().MarkTransactionSynced(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Backed up transaction",
		"transaction_id", tx.ID,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents)
	return nil
}

// recordDeletion appends a tombstone row built from the message snapshot.
func (w *BackupWorker) recordDeletion(ctx context.Context, msg *amqp.BackupMessage) error {
	entry := sheets.Entry{
		TransactionID: msg.TransactionID,
		Event:         "delete",
		Date:          msg.Date,
		Kind:          msg.Kind,
		AmountCents:   msg.AmountCents,
		Description:   msg.Description,
	}

	if _, err := w.journal.Append(ctx, entry); err != nil {
		return fmt.Errorf("append deletion to journal: %w", err)
	}

	slog.InfoContext(ctx, "Recorded transaction deletion",
		"transaction_id", msg.TransactionID)
	return nil
}

// ProcessPendingTransactions backs up rows that never got their AMQP message.
// This is a recovery mechanism, not the primary path.
func (w *BackupWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.Queries().ListPendingBackup(ctx, int64(w.batchSize))
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := w.backupTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to back up transaction",
				"transaction_id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup so missed
// messages or worker downtime do not leave rows behind.
func (w *BackupWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.Queries().ListPendingBackup(ctx, int64(w.batchSize*5))
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.backupTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to back up transaction during startup",
				"transaction_id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup backup completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}
