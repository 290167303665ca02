package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/payment"
)

var (
	ErrTransactionIDNotFoundInCtx = errors.New("no transaction id found in ctx")
	ErrTransactionNotFound        = errors.New("transaction not found")
)

type contextKey string

const transactionKey contextKey = "storageTransactionID"

func withTransactionID(ctx context.Context, trxID string) context.Context {
	return context.WithValue(ctx, transactionKey, trxID)
}

func transactionIDFromContext(ctx context.Context) (string, bool) {
	trxID, ok := ctx.Value(transactionKey).(string)

	return trxID, ok
}

type transaction struct {
	id                string
	bookingWrites     map[int64]*booking.Booking
	bookingDeletes    map[int64]struct{}
	summaryWrites     map[summaryKey]*payment.Summary
	summaryWriteOrder []summaryKey
}

func (db *DB) BeginTransaction(ctx context.Context) (context.Context, error) {
	db.trxMu.Lock()

	db.mu.Lock()
	defer db.mu.Unlock()

	trxID := fmt.Sprintf("trx-%d", db.nextTrxID)
	db.nextTrxID++

	db.transactions[trxID] = &transaction{
		id:             trxID,
		bookingWrites:  make(map[int64]*booking.Booking),
		bookingDeletes: make(map[int64]struct{}),
		summaryWrites:  make(map[summaryKey]*payment.Summary),
	}

	return withTransactionID(ctx, trxID), nil
}

func (db *DB) CommitTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionLocked(ctx)
	if err != nil {
		return err
	}

	for id := range trx.bookingDeletes {
		delete(db.bookings, id)
	}

	for id, b := range trx.bookingWrites {
		db.bookings[id] = b
	}

	for _, key := range trx.summaryWriteOrder {
		summary := trx.summaryWrites[key]
		if existing, ok := db.summaries[key]; ok {
			summary.ID = existing.ID
		}

		db.summaries[key] = summary
	}

	db.finishLocked(trx)

	return nil
}

func (db *DB) RollbackTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionLocked(ctx)
	if err != nil {
		return err
	}

	db.finishLocked(trx)

	return nil
}

func (db *DB) finishLocked(trx *transaction) {
	delete(db.transactions, trx.id)
	db.trxMu.Unlock()
}

func (db *DB) transactionLocked(ctx context.Context) (*transaction, error) {
	trxID, ok := transactionIDFromContext(ctx)
	if !ok || trxID == "" {
		return nil, ErrTransactionIDNotFoundInCtx
	}

	trx, exists := db.transactions[trxID]
	if !exists {
		return nil, fmt.Errorf("transaction %s not found: %w", trxID, ErrTransactionNotFound)
	}

	return trx, nil
}

// currentTransactionLocked returns the transaction of ctx, or nil outside of one.
func (db *DB) currentTransactionLocked(ctx context.Context) *transaction {
	trxID, ok := transactionIDFromContext(ctx)
	if !ok {
		return nil
	}

	return db.transactions[trxID]
}
