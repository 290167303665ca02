package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/transaction"
)

const tracerName = "github.com/avstrong/studio/internal/payment"

type Storage interface {
	transaction.Transactor
	GetBookingsByOwnerAndDateRange(ctx context.Context, ownerID string, from, to calendar.Date) ([]*booking.Booking, error)
	GetOwnersByDateRange(ctx context.Context, from, to calendar.Date) ([]string, error)
	GetPaymentSummary(ctx context.Context, ownerID string, period Period) (*Summary, error)
	SavePaymentSummary(ctx context.Context, summary *Summary) error
	GetPaymentSummariesByOwner(ctx context.Context, ownerID string) ([]*Summary, error)
}

type Manager struct {
	l          *logger.Logger
	storage    Storage
	calculator *Calculator
	tracer     trace.Tracer
	now        func() time.Time
}

func New(l *logger.Logger, storage Storage, calculator *Calculator) *Manager {
	return &Manager{
		l:          l,
		storage:    storage,
		calculator: calculator,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// PreviousPeriod is the period a recalculation without an explicit month covers.
func (m *Manager) PreviousPeriod() Period {
	return PreviousPeriod(m.now().UTC())
}

// Recalculate computes and upserts the summaries of period for ownerIDs. An empty
// ownerIDs recalculates every owner with at least one booking in the period. All
// summaries are written in one transaction and share one CalculatedAt.
func (m *Manager) Recalculate(ctx context.Context, period Period, ownerIDs []string) (_ *BatchResult, err error) {
	ctx, span := m.tracer.Start(ctx, "payment.Recalculate", trace.WithAttributes(
		attribute.String("payment.period", period.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := period.Validate(); err != nil {
		return nil, err
	}

	owners := make([]string, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		if id = strings.TrimSpace(id); id != "" {
			owners = append(owners, id)
		}
	}

	from, to := period.Range()
	calculatedAt := m.now().UTC()
	result := &BatchResult{Period: period}

	err = transaction.Run(ctx, m.l, m.storage, "recalculate payments", func(ctx context.Context) error {
		if len(owners) == 0 {
			found, err := m.storage.GetOwnersByDateRange(ctx, from, to)
			if err != nil {
				return fmt.Errorf("get owners of %v: %w", period, err)
			}

			owners = found
		}

		for _, ownerID := range owners {
			created, err := m.recalculateOwner(ctx, ownerID, period, calculatedAt)
			if err != nil {
				return err
			}

			result.Processed++

			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.l.LogInfo("Payments for %v recalculated: %d processed, %d created, %d updated",
		period, result.Processed, result.Created, result.Updated)

	return result, nil
}

func (m *Manager) recalculateOwner(ctx context.Context, ownerID string, period Period, calculatedAt time.Time) (bool, error) {
	from, to := period.Range()

	bookings, err := m.storage.GetBookingsByOwnerAndDateRange(ctx, ownerID, from, to)
	if err != nil {
		return false, fmt.Errorf("get bookings of %s for %v: %w", ownerID, period, err)
	}

	summary, err := m.calculator.Calculate(ownerID, period, bookings)
	if err != nil {
		return false, fmt.Errorf("calculate %s for %v: %w", ownerID, period, err)
	}

	summary.CalculatedAt = calculatedAt

	created := false

	if _, err := m.storage.GetPaymentSummary(ctx, ownerID, period); err != nil {
		if !errors.Is(err, booking.ErrRecordNotFound) {
			return false, fmt.Errorf("get summary of %s for %v: %w", ownerID, period, err)
		}

		created = true
	}

	if err := m.storage.SavePaymentSummary(ctx, summary); err != nil {
		return false, fmt.Errorf("save summary of %s for %v: %w", ownerID, period, err)
	}

	m.l.LogDebugf("Summary of %s for %v: %d minutes, %d events, total %s",
		ownerID, period, summary.TotalMinutes, summary.MergedEventCount, summary.TotalIncludingVAT)

	return created, nil
}

// ListForOwner returns the stored summaries of ownerID, newest period first.
func (m *Manager) ListForOwner(ctx context.Context, ownerID string) ([]*Summary, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}

	summaries, err := m.storage.GetPaymentSummariesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get summaries of %s: %w", ownerID, err)
	}

	return summaries, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrInvalidPeriod) && !errors.Is(err, ErrOwnerRequired) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
