package booking

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

	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/transaction"
)

const tracerName = "github.com/avstrong/studio/internal/booking"

type storageReader interface {
	GetBookingByID(ctx context.Context, id int64) (*Booking, error)
	GetBookingsByBucket(ctx context.Context, bucket Bucket, excludeID int64) ([]*Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to calendar.Date) ([]*Booking, error)
}

type storageWriter interface {
	transaction.Transactor
	InsertBooking(ctx context.Context, b *Booking) (int64, error)
	UpdateBooking(ctx context.Context, b *Booking) error
	DeleteBooking(ctx context.Context, id int64) error
}

// Storage is the booking store. Mutations are only visible after the transaction commits.
type Storage interface {
	storageReader
	storageWriter
}

type Manager struct {
	l       *logger.Logger
	storage Storage
	tracer  trace.Tracer
	now     func() time.Time
}

func New(l *logger.Logger, storage Storage) *Manager {
	return &Manager{
		l:       l,
		storage: storage,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

func (in *CreateInput) prepare(actor Actor) {
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	if in.OwnerID == "" {
		in.OwnerID = actor.ID
	}

	in.Title = strings.TrimSpace(in.Title)
	in.EventType = strings.TrimSpace(in.EventType)
}

func (in *CreateInput) validate() error {
	inputErr := newInputError()

	in.Slot.validate(inputErr)

	if in.OwnerID == "" {
		inputErr.addError("owner_id", "provide owner_id")
	}

	switch in.EventType {
	case "", EventTypeLive, EventTypePreRecorded:
	default:
		inputErr.addError("event_type", fmt.Sprintf("event_type must be %q or %q", EventTypeLive, EventTypePreRecorded))
	}

	if in.HostCount < 0 {
		inputErr.addError("host_count", "host_count must not be negative")
	}

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

// Create books input.Slot for input.OwnerID. The owner defaults to the actor; only a
// privileged actor may book on behalf of someone else.
func (m *Manager) Create(ctx context.Context, actor Actor, input *CreateInput) (_ *Booking, err error) {
	ctx, span := m.tracer.Start(ctx, "booking.Create")
	defer func() { endSpan(span, err) }()

	input.prepare(actor)

	if err := input.validate(); err != nil {
		return nil, err
	}

	if !actor.CanAssign(input.OwnerID) {
		return nil, fmt.Errorf("assign booking to %q: %w", input.OwnerID, ErrForbidden)
	}

	span.SetAttributes(bucketAttributes(input.Bucket())...)

	b := &Booking{
		Slot:      input.Slot,
		Details:   input.Details,
		OwnerID:   input.OwnerID,
		CreatedAt: m.now().UTC(),
	}

	err = transaction.Run(ctx, m.l, m.storage, "create booking", func(ctx context.Context) error {
		existing, err := m.storage.GetBookingsByBucket(ctx, b.Bucket(), 0)
		if err != nil {
			return fmt.Errorf("get bookings of bucket: %w", err)
		}

		if err := Resolve(b.Slot, existing); err != nil {
			return err
		}

		id, err := m.storage.InsertBooking(ctx, b)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		b.ID = id

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.l.LogInfo("Booking %d created on %v %02d:%02d-%02d:%02d for %s",
		b.ID, b.Date, b.Hour, b.StartMinute, b.Hour, b.EndMinute, b.OwnerID)

	return b, nil
}

// Reschedule moves an existing booking to input.Slot in place. The booking is
// never checked against itself, so rescheduling onto its own slot succeeds.
func (m *Manager) Reschedule(ctx context.Context, actor Actor, input *RescheduleInput) (_ *Booking, err error) {
	ctx, span := m.tracer.Start(ctx, "booking.Reschedule", trace.WithAttributes(attribute.Int64("booking.id", input.ID)))
	defer func() { endSpan(span, err) }()

	var updated *Booking

	err = transaction.Run(ctx, m.l, m.storage, "reschedule booking", func(ctx context.Context) error {
		b, err := m.storage.GetBookingByID(ctx, input.ID)
		if err != nil {
			return fmt.Errorf("get booking %d: %w", input.ID, err)
		}

		if !actor.CanModify(b) {
			return fmt.Errorf("reschedule booking %d: %w", input.ID, ErrForbidden)
		}

		if err := ValidateSlot(input.Slot); err != nil {
			return err
		}

		existing, err := m.storage.GetBookingsByBucket(ctx, input.Bucket(), b.ID)
		if err != nil {
			return fmt.Errorf("get bookings of bucket: %w", err)
		}

		if err := Resolve(input.Slot, existing); err != nil {
			return err
		}

		b.Slot = input.Slot

		if err := m.storage.UpdateBooking(ctx, b); err != nil {
			return fmt.Errorf("update booking %d: %w", b.ID, err)
		}

		updated = b

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.l.LogInfo("Booking %d rescheduled to %v %02d:%02d-%02d:%02d",
		updated.ID, updated.Date, updated.Hour, updated.StartMinute, updated.Hour, updated.EndMinute)

	return updated, nil
}

func (m *Manager) Delete(ctx context.Context, actor Actor, id int64) (err error) {
	ctx, span := m.tracer.Start(ctx, "booking.Delete", trace.WithAttributes(attribute.Int64("booking.id", id)))
	defer func() { endSpan(span, err) }()

	err = transaction.Run(ctx, m.l, m.storage, "delete booking", func(ctx context.Context) error {
		b, err := m.storage.GetBookingByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get booking %d: %w", id, err)
		}

		if !actor.CanModify(b) {
			return fmt.Errorf("delete booking %d: %w", id, ErrForbidden)
		}

		if err := m.storage.DeleteBooking(ctx, id); err != nil {
			return fmt.Errorf("delete booking %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.l.LogInfo("Booking %d deleted by %s", id, actor.ID)

	return nil
}

func (m *Manager) Get(ctx context.Context, id int64) (*Booking, error) {
	b, err := m.storage.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}

	return b, nil
}

// List returns the bookings dated within [from, to).
func (m *Manager) List(ctx context.Context, from, to calendar.Date) ([]*Booking, error) {
	if !from.Before(to) {
		inputErr := newInputError()
		inputErr.addError("to", "to must be after from")

		return nil, inputErr
	}

	bookings, err := m.storage.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("get bookings from %v to %v: %w", from, to, err)
	}

	return bookings, nil
}

func bucketAttributes(b Bucket) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("booking.date", b.Date.String()),
		attribute.Int("booking.hour", b.Hour),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && IsInputError(err) == nil && IsConflictError(err) == nil &&
		!errors.Is(err, ErrRecordNotFound) && !errors.Is(err, ErrForbidden) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
