package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tygerearth-labs/finacial-tracker/internal/allocation"
	"github.com/tygerearth-labs/finacial-tracker/internal/amqp"
	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

// BackupPublisher is the messaging surface the service needs. *amqp.Client
// satisfies it; tests substitute a recorder.
type BackupPublisher interface {
	PublishBackup(ctx context.Context, msg *amqp.BackupMessage) error
	Close() error
}

// TransactionService orchestrates ledger writes: validation, the storage
// transaction that keeps allocations consistent, and the async backup
// publish.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	engine    *allocation.Engine
	publisher BackupPublisher
}

func NewTransactionService(storage *storage.SQLiteRepository, engine *allocation.Engine, publisher BackupPublisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		engine:    engine,
		publisher: publisher,
	}
}

// TransactionInput carries the writable fields of a ledger entry.
type TransactionInput struct {
	ProfileID   int64
	Kind        core.TransactionKind
	Amount      core.Money
	Description string
	Date        core.Date
	CategoryID  int64
}

// Create validates the input, writes the ledger row and its allocations in
// one storage transaction, then publishes the backup message. A failed
// publish never fails the request; the row stays pending for the recovery
// sweep.
func (s *TransactionService) Create(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	candidate := core.Transaction{
		ProfileID:   in.ProfileID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		CategoryID:  in.CategoryID,
	}
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		if err := s.checkReferences(ctx, q, in); err != nil {
			return err
		}

		var err error
		created, err = q.CreateTransaction(ctx, storage.CreateTransactionParams{
			ProfileID:   in.ProfileID,
			Kind:        in.Kind,
			AmountCents: in.Amount.Cents,
			Description: in.Description,
			Date:        in.Date.Time,
			CategoryID:  in.CategoryID,
		})
		if err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}

		return s.engine.Allocate(ctx, q, created)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishUpsert(ctx, created.ID)
	return created, nil
}

// Update rewrites the row and reconciles allocations when the amount or kind
// changed.
func (s *TransactionService) Update(ctx context.Context, id int64, in TransactionInput) (core.Transaction, error) {
	candidate := core.Transaction{
		ID:          id,
		ProfileID:   in.ProfileID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		CategoryID:  in.CategoryID,
	}
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		// The row stays in its original profile; moving entries between
		// profiles is not supported.
		in.ProfileID = old.ProfileID
		if err := s.checkReferences(ctx, q, in); err != nil {
			return err
		}

		updated, err = q.UpdateTransaction(ctx, storage.UpdateTransactionParams{
			ID:          id,
			Kind:        in.Kind,
			AmountCents: in.Amount.Cents,
			Description: in.Description,
			Date:        in.Date.Time,
			CategoryID:  in.CategoryID,
		})
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		return s.engine.Reallocate(ctx, q, old, updated)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishUpsert(ctx, updated.ID)
	return updated, nil
}

// Delete reverses the row's allocations and removes it, then records the
// deletion in the backup journal.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	var old core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		old, err = q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := s.engine.Deallocate(ctx, q, id); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publishDelete(ctx, old)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.Queries().GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, p storage.ListTransactionsParams) ([]core.Transaction, error) {
	return s.storage.Queries().ListTransactions(ctx, p)
}

// checkReferences verifies the profile exists and the category belongs to
// the same profile with a matching kind.
func (s *TransactionService) checkReferences(ctx context.Context, q *storage.Queries, in TransactionInput) error {
	if _, err := q.GetProfile(ctx, in.ProfileID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("profile %d: %w", in.ProfileID, core.ErrMissingProfile)
		}
		return err
	}

	category, err := q.GetCategory(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("category %d: %w", in.CategoryID, core.ErrMissingCategory)
		}
		return err
	}
	if category.ProfileID != in.ProfileID {
		return fmt.Errorf("category %d belongs to another profile: %w", in.CategoryID, core.ErrMissingCategory)
	}
	if category.Kind != in.Kind {
		return fmt.Errorf("category %d is %s: %w", in.CategoryID, category.Kind, core.ErrInvalidKind)
	}
	return nil
}

func (s *TransactionService) publishUpsert(ctx context.Context, id int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Backup publisher not available, skipping message")
		return
	}
	if err := s.publisher.PublishBackup(ctx, amqp.NewUpsertMessage(id)); err != nil {
		// The row stays sync_status=pending; the worker sweep picks it up.
		slog.ErrorContext(ctx, "Failed to publish backup message",
			"transaction_id", id, "error", err)
	}
}

func (s *TransactionService) publishDelete(ctx context.Context, old core.Transaction) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Backup publisher not available, skipping message")
		return
	}
	msg := amqp.NewDeleteMessage(old.ID, old.ProfileID, string(old.Kind), old.Amount.Cents, old.Description, old.Date.Time)
	if err := s.publisher.PublishBackup(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"transaction_id", old.ID, "error", err)
	}
}

// Close closes both storage and messaging connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
