package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/amqp"
	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/sheets/memory"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

func newWorkerFixture(t *testing.T) (*BackupWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	journal := memory.New()
	return NewBackupWorker(repo, journal, 10), repo, journal
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository) core.Transaction {
	t.Helper()
	ctx := context.Background()
	q := repo.Queries()

	profile, err := q.CreateProfile(ctx, storage.CreateProfileParams{Name: "Personal", Active: true})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	category, err := q.CreateCategory(ctx, storage.CreateCategoryParams{
		ProfileID: profile.ID, Kind: core.Expense, Name: "Food", Color: "#ff0000",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	tx, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
		ProfileID: profile.ID, Kind: core.Expense, AmountCents: 1500,
		Description: "Lunch", Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		CategoryID: category.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func TestHandleMessageUpsert(t *testing.T) {
	w, repo, journal := newWorkerFixture(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo)

	if err := w.HandleMessage(ctx, amqp.NewUpsertMessage(tx.ID)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.TransactionID != tx.ID || e.Event != "upsert" || e.Category != "Food" || e.AmountCents != 1500 {
		t.Errorf("entry = %+v", e)
	}
	if e.Date != "2026-04-01" {
		t.Errorf("date = %q, want 2026-04-01", e.Date)
	}

	pending, err := repo.Queries().ListPendingBackup(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingBackup: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after backup = %d, want 0", len(pending))
	}
}

func TestHandleMessageUpsertMissingTransaction(t *testing.T) {
	w, _, journal := newWorkerFixture(t)

	// A row deleted before its upsert message arrives is skipped, not failed.
	if err := w.HandleMessage(context.Background(), amqp.NewUpsertMessage(404)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(journal.Entries()) != 0 {
		t.Error("no entry expected for missing transaction")
	}
}

func TestHandleMessageJournalFailure(t *testing.T) {
	w, repo, journal := newWorkerFixture(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo)

	journal.FailWith(errors.New("quota exceeded"))
	if err := w.HandleMessage(ctx, amqp.NewUpsertMessage(tx.ID)); err == nil {
		t.Fatal("expected error from journal failure")
	}

	// The row is marked errored so the recovery sweep does not loop on it.
	pending, err := repo.Queries().ListPendingBackup(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingBackup: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after error mark", len(pending))
	}
}

func TestHandleMessageDelete(t *testing.T) {
	w, _, journal := newWorkerFixture(t)

	msg := amqp.NewDeleteMessage(7, 1, "INCOME", 100_000, "salary", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	if entries[0].Event != "delete" || entries[0].TransactionID != 7 || entries[0].AmountCents != 100_000 {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestStartupSyncCheck(t *testing.T) {
	w, repo, journal := newWorkerFixture(t)
	ctx := context.Background()
	seedTransaction(t, repo)
	seedTransaction2(t, repo)

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}

	if got := len(journal.Entries()); got != 2 {
		t.Fatalf("journal entries = %d, want 2", got)
	}
	pending, err := repo.Queries().ListPendingBackup(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingBackup: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func seedTransaction2(t *testing.T, repo *storage.SQLiteRepository) core.Transaction {
	t.Helper()
	ctx := context.Background()
	q := repo.Queries()

	profile, err := q.CreateProfile(ctx, storage.CreateProfileParams{Name: "Family"})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	category, err := q.CreateCategory(ctx, storage.CreateCategoryParams{
		ProfileID: profile.ID, Kind: core.Income, Name: "Salary", Color: "#00ff00",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	tx, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
		ProfileID: profile.ID, Kind: core.Income, AmountCents: 500_000,
		Description: "May salary", Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CategoryID: category.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}
