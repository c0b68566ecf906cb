package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fxdesk/internal/amqp"
	"fxdesk/internal/cache"
	"fxdesk/internal/core"
	"fxdesk/internal/log"
	"fxdesk/internal/storage"
)

// ErrValidation wraps every rejection of a transaction's content.
var ErrValidation = errors.New("invalid transaction")

// TransactionStore is the storage surface the transaction service needs.
type TransactionStore interface {
	storage.TransactionWriter
	storage.TransactionGetter
	storage.TransactionUpdater
	storage.TransactionDeleter
}

// EventPublisher announces transaction changes to downstream consumers.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id int64, action amqp.Action) error
}

// TransactionService orchestrates transaction writes across storage, the
// report snapshot cache and AMQP.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	snapshots cache.Cache[[]core.Transaction]
	logger    *log.Logger
}

// NewTransactionService wires the service. publisher and snapshots may be nil.
func NewTransactionService(store TransactionStore, publisher EventPublisher, snapshots cache.Cache[[]core.Transaction]) *TransactionService {
	if snapshots == nil {
		snapshots = cache.Nop[[]core.Transaction]{}
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		snapshots: snapshots,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
}

// WithLogger replaces the service logger.
func (s *TransactionService) WithLogger(l *log.Logger) *TransactionService {
	s.logger = l.WithComponent(log.ComponentLedger)
	return s
}

// Create validates tx, fills a missing base total from rate and amount,
// stores it and announces it.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.CurrencyCode = strings.TrimSpace(tx.CurrencyCode)
	tx.BranchID = strings.TrimSpace(tx.BranchID)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if strings.TrimSpace(tx.TotalBase) == "" {
		tx.TotalBase = core.CalculateExchangeTotal(tx.Rate, tx.Amount)
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.snapshots.Flush()

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithTransaction(created.ID, created.BranchID, created.CurrencyCode, string(created.Type), created.Amount).
			ToSlice()...)

	s.publish(ctx, created.ID, amqp.ActionCreated)
	return created, nil
}

// Get returns one transaction.
func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Update applies patch and validates the result. When rate or amount change
// without an explicit total, the total is recomputed.
func (s *TransactionService) Update(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.Empty() {
		return core.Transaction{}, core.ErrEmptyPatch
	}
	current, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if (patch.Rate != nil || patch.Amount != nil) && patch.TotalBase == nil {
		next := patch.Apply(current)
		total := core.CalculateExchangeTotal(next.Rate, next.Amount)
		patch.TotalBase = &total
	}
	if err := patch.Apply(current).Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	updated, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	s.snapshots.Flush()

	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldTransaction, id)

	s.publish(ctx, id, amqp.ActionUpdated)
	return updated, nil
}

// Delete removes a transaction and returns it.
func (s *TransactionService) Delete(ctx context.Context, id int64) (core.Transaction, error) {
	removed, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	s.snapshots.Flush()

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransaction, id)

	s.publish(ctx, id, amqp.ActionDeleted)
	return removed, nil
}

// publish never fails the request; the row is already stored.
func (s *TransactionService) publish(ctx context.Context, id int64, action amqp.Action) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event",
			log.FieldTransaction, id, log.FieldAction, string(action))
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, id, action); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransaction, id,
			log.FieldAction, string(action),
			log.FieldError, err)
	}
}
