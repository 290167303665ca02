package schedule

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
)

const (
	tracerName = "github.com/avstrong/studio/internal/schedule"

	DefaultWindowDays    = 7
	DefaultMaxWindowDays = 31
)

var (
	ErrInvalidWindow = errors.New("invalid schedule window")
	ErrDayNotFound   = errors.New("day not found in schedule")
)

type storage interface {
	GetBookingsByDateRange(ctx context.Context, from, to calendar.Date) ([]*booking.Booking, error)
}

type Config struct {
	MaxWindowDays int
}

// Projector renders stored bookings onto minute grids.
type Projector struct {
	l             *logger.Logger
	storage       storage
	tracer        trace.Tracer
	maxWindowDays int
}

func NewProjector(l *logger.Logger, storage storage, conf Config) *Projector {
	maxDays := conf.MaxWindowDays
	if maxDays <= 0 {
		maxDays = DefaultMaxWindowDays
	}

	return &Projector{
		l:             l,
		storage:       storage,
		tracer:        otel.Tracer(tracerName),
		maxWindowDays: maxDays,
	}
}

func (p *Projector) BuildWindow(ctx context.Context, start calendar.Date, days int) (*Window, error) {
	ctx, span := p.tracer.Start(ctx, "schedule.BuildWindow", trace.WithAttributes(
		attribute.String("schedule.start", start.String()),
		attribute.Int("schedule.days", days),
	))
	defer span.End()

	if start.IsZero() {
		return nil, fmt.Errorf("start date is required: %w", ErrInvalidWindow)
	}

	if days < 1 || days > p.maxWindowDays {
		return nil, fmt.Errorf("days %d must be within 1..%d: %w", days, p.maxWindowDays, ErrInvalidWindow)
	}

	w := NewWindow(start, days)

	bookings, err := p.storage.GetBookingsByDateRange(ctx, w.Start, w.End())
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("get bookings from %v to %v: %w", w.Start, w.End(), err)
	}

	Paint(w, bookings)

	p.l.LogDebugf("Schedule window %v+%d built from %d bookings", start, days, len(bookings))

	return w, nil
}

func (p *Projector) BuildDay(ctx context.Context, date calendar.Date) (*Day, error) {
	w, err := p.BuildWindow(ctx, date, 1)
	if err != nil {
		return nil, err
	}

	day := w.Day(date)
	if day == nil {
		return nil, fmt.Errorf("day %v: %w", date, ErrDayNotFound)
	}

	return day, nil
}
