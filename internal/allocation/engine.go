// Package allocation applies savings target percentages to income
// transactions and keeps the accumulated balances consistent with the
// allocation rows.
package allocation

import (
	"context"
	"fmt"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

// Store is the slice of the query layer the engine needs. *storage.Queries
// satisfies it, so the engine runs inside whatever transaction the caller
// opened.
type Store interface {
	ListActiveAllocationTargets(ctx context.Context, profileID int64) ([]core.SavingsTarget, error)
	CreateAllocation(ctx context.Context, p storage.CreateAllocationParams) (core.Allocation, error)
	ListAllocationsByTransaction(ctx context.Context, transactionID int64) ([]core.Allocation, error)
	DeleteAllocationsByTransaction(ctx context.Context, transactionID int64) error
	AddToAccumulated(ctx context.Context, id int64, deltaCents int64) (int64, error)
}

type Engine struct {
	logger *log.Logger
}

func NewEngine(logger *log.Logger) *Engine {
	return &Engine{logger: logger.WithComponent(log.ComponentAllocation)}
}

// Allocate distributes an income transaction across the profile's active
// targets. Expense transactions are a no-op.
func (e *Engine) Allocate(ctx context.Context, store Store, tx core.Transaction) error {
	if tx.Kind != core.Income {
		return nil
	}

	targets, err := store.ListActiveAllocationTargets(ctx, tx.ProfileID)
	if err != nil {
		return fmt.Errorf("listing allocation targets: %w", err)
	}

	for _, target := range targets {
		amount := tx.Amount.PercentOf(target.AllocationPercent)
		if amount.Cents == 0 {
			continue
		}
		if _, err := store.CreateAllocation(ctx, storage.CreateAllocationParams{
			TransactionID: tx.ID,
			TargetID:      target.ID,
			ProfileID:     tx.ProfileID,
			AmountCents:   amount.Cents,
		}); err != nil {
			return fmt.Errorf("creating allocation for target %d: %w", target.ID, err)
		}
		if _, err := store.AddToAccumulated(ctx, target.ID, amount.Cents); err != nil {
			return fmt.Errorf("incrementing target %d: %w", target.ID, err)
		}
		e.logger.DebugContext(ctx, "Allocated income to target",
			log.FieldTransactionID, tx.ID,
			log.FieldTargetID, target.ID,
			log.FieldAmountCents, amount.Cents,
		)
	}
	return nil
}

// Deallocate reverses whatever Allocate produced for the transaction. It is
// a no-op when no allocation rows exist, so repeated calls are safe.
func (e *Engine) Deallocate(ctx context.Context, store Store, transactionID int64) error {
	allocations, err := store.ListAllocationsByTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("listing allocations: %w", err)
	}
	if len(allocations) == 0 {
		return nil
	}

	for _, a := range allocations {
		accumulated, err := store.AddToAccumulated(ctx, a.TargetID, -a.Amount.Cents)
		if err != nil {
			return fmt.Errorf("decrementing target %d: %w", a.TargetID, err)
		}
		if accumulated < 0 {
			e.logger.WarnContext(ctx, "Target accumulated went negative after deallocation",
				log.FieldTargetID, a.TargetID,
				log.FieldTransactionID, transactionID,
				log.FieldAmountCents, accumulated,
			)
		}
	}
	if err := store.DeleteAllocationsByTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("deleting allocations: %w", err)
	}
	return nil
}

// Reallocate reconciles allocations after a transaction update. Nothing
// happens unless the amount or kind changed; otherwise the old allocations
// are reversed and, when the updated transaction is income, rebuilt from the
// currently active targets.
func (e *Engine) Reallocate(ctx context.Context, store Store, old, updated core.Transaction) error {
	if old.Amount == updated.Amount && old.Kind == updated.Kind {
		return nil
	}
	if err := e.Deallocate(ctx, store, old.ID); err != nil {
		return err
	}
	return e.Allocate(ctx, store, updated)
}
