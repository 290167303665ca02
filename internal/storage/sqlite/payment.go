package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/payment"
)

const summaryColumns = `id, owner_id, period_year, period_month, total_minutes, hourly_rate, base_amount,
	merged_event_count, event_bonus_amount, subtotal, vat_rate, vat_amount, total_including_vat, calculated_at`

func (db *DB) GetPaymentSummary(ctx context.Context, ownerID string, period payment.Period) (*payment.Summary, error) {
	row := db.conn(ctx).QueryRowContext(ctx, `
		SELECT `+summaryColumns+`
		FROM payment_summaries
		WHERE owner_id = ? AND period_year = ? AND period_month = ?
	`, ownerID, period.Year, int(period.Month))

	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan summary of %s for %v: %w", ownerID, period, err)
	}

	return s, nil
}

// SavePaymentSummary upserts by (owner, year, month); the row id survives updates.
func (db *DB) SavePaymentSummary(ctx context.Context, s *payment.Summary) error {
	_, err := db.conn(ctx).ExecContext(ctx, `
		INSERT INTO payment_summaries (
			owner_id, period_year, period_month, total_minutes, hourly_rate, base_amount,
			merged_event_count, event_bonus_amount, subtotal, vat_rate, vat_amount, total_including_vat, calculated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, period_year, period_month) DO UPDATE SET
			total_minutes       = excluded.total_minutes,
			hourly_rate         = excluded.hourly_rate,
			base_amount         = excluded.base_amount,
			merged_event_count  = excluded.merged_event_count,
			event_bonus_amount  = excluded.event_bonus_amount,
			subtotal            = excluded.subtotal,
			vat_rate            = excluded.vat_rate,
			vat_amount          = excluded.vat_amount,
			total_including_vat = excluded.total_including_vat,
			calculated_at       = excluded.calculated_at
	`,
		s.OwnerID, s.Period.Year, int(s.Period.Month), s.TotalMinutes, s.HourlyRate, s.BaseAmount,
		s.MergedEventCount, s.EventBonusAmount, s.Subtotal, s.VATRate, s.VATAmount, s.TotalIncludingVAT, s.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert summary of %s for %v: %w", s.OwnerID, s.Period, err)
	}

	return nil
}

func (db *DB) GetPaymentSummariesByOwner(ctx context.Context, ownerID string) ([]*payment.Summary, error) {
	rows, err := db.conn(ctx).QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM payment_summaries
		WHERE owner_id = ?
		ORDER BY period_year DESC, period_month DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query summaries of %s: %w", ownerID, err)
	}
	defer rows.Close()

	var summaries []*payment.Summary

	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func scanSummary(sc scanner) (*payment.Summary, error) {
	var (
		s            payment.Summary
		month        int
		calculatedAt time.Time
	)

	err := sc.Scan(&s.ID, &s.OwnerID, &s.Period.Year, &month, &s.TotalMinutes, &s.HourlyRate, &s.BaseAmount,
		&s.MergedEventCount, &s.EventBonusAmount, &s.Subtotal, &s.VATRate, &s.VATAmount, &s.TotalIncludingVAT,
		&calculatedAt)
	if err != nil {
		return nil, err
	}

	s.Period.Month = time.Month(month)
	s.CalculatedAt = calculatedAt.UTC()

	return &s, nil
}
