package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/payment"
)

func (db *DB) GetPaymentSummary(ctx context.Context, ownerID string, period payment.Period) (*payment.Summary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := summaryKey{ownerID: ownerID, period: period}

	if trx := db.currentTransactionLocked(ctx); trx != nil {
		if staged, ok := trx.summaryWrites[key]; ok {
			found := *staged

			return &found, nil
		}
	}

	summary, ok := db.summaries[key]
	if !ok {
		return nil, booking.ErrRecordNotFound
	}

	found := *summary

	return &found, nil
}

// SavePaymentSummary stages an upsert keyed by (owner, period).
func (db *DB) SavePaymentSummary(ctx context.Context, summary *payment.Summary) error {
	id, err := db.idGen.GetID(ctx)
	if err != nil {
		return fmt.Errorf("get next summary id: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionLocked(ctx)
	if err != nil {
		return err
	}

	key := summaryKey{ownerID: summary.OwnerID, period: summary.Period}

	stored := *summary
	stored.ID = id

	if _, staged := trx.summaryWrites[key]; !staged {
		trx.summaryWriteOrder = append(trx.summaryWriteOrder, key)
	}

	trx.summaryWrites[key] = &stored

	return nil
}

func (db *DB) GetPaymentSummariesByOwner(_ context.Context, ownerID string) ([]*payment.Summary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []*payment.Summary

	for key, summary := range db.summaries {
		if key.ownerID != ownerID {
			continue
		}

		found := *summary
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Period.After(result[j].Period)
	})

	return result, nil
}
