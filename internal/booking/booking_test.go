package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/idgen/simple"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/storage/memory"
)

var (
	date  = calendar.New(2024, time.June, 10)
	u1    = booking.Actor{ID: "u1"}
	u2    = booking.Actor{ID: "u2"}
	admin = booking.Actor{ID: "admin", Privileged: true}
)

func newManager() *booking.Manager {
	l := logger.NewNop()

	return booking.New(l, memory.New(memory.Config{L: l, IDGen: simple.New()}))
}

func create(t *testing.T, m *booking.Manager, actor booking.Actor, start, end int) *booking.Booking {
	t.Helper()

	b, err := m.Create(context.Background(), actor, &booking.CreateInput{
		Slot:    booking.Slot{Date: date, Hour: 9, StartMinute: start, EndMinute: end},
		Details: booking.Details{Title: " Morning show ", EventType: booking.EventTypeLive, HostCount: 2},
	})
	if err != nil {
		t.Fatalf("create [%d,%d): %v", start, end, err)
	}

	return b
}

func TestCreateDefaultsOwnerToActor(t *testing.T) {
	m := newManager()

	b := create(t, m, u1, 0, 30)

	if b.ID == 0 || b.OwnerID != "u1" || b.Title != "Morning show" || b.CreatedAt.IsZero() {
		t.Fatalf("created booking = %+v", b)
	}

	got, err := m.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Slot != b.Slot || got.Details != b.Details {
		t.Fatalf("stored booking = %+v, want %+v", got, b)
	}
}

func TestCreateHalfOpenAdjacency(t *testing.T) {
	m := newManager()

	create(t, m, u1, 0, 30)
	create(t, m, u1, 30, 60)

	_, err := m.Create(context.Background(), u1, &booking.CreateInput{
		Slot: booking.Slot{Date: date, Hour: 9, StartMinute: 29, EndMinute: 45},
	})
	if booking.IsConflictError(err) == nil {
		t.Fatalf("got %v, want conflict", err)
	}
}

func TestCreateValidation(t *testing.T) {
	m := newManager()

	_, err := m.Create(context.Background(), u1, &booking.CreateInput{
		Slot:    booking.Slot{Date: date, Hour: 9, StartMinute: 0, EndMinute: 30},
		Details: booking.Details{EventType: "Podcast", HostCount: -1},
	})

	inputErr := booking.IsInputError(err)
	if inputErr == nil {
		t.Fatalf("got %v, want input error", err)
	}

	for _, field := range []string{"event_type", "host_count"} {
		if _, ok := inputErr.Fields()[field]; !ok {
			t.Errorf("missing field %q in %v", field, inputErr.Fields())
		}
	}
}

func TestCreateForOtherOwner(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	in := func() *booking.CreateInput {
		return &booking.CreateInput{
			Slot:    booking.Slot{Date: date, Hour: 9, StartMinute: 0, EndMinute: 30},
			OwnerID: "u2",
		}
	}

	if _, err := m.Create(ctx, u1, in()); !errors.Is(err, booking.ErrForbidden) {
		t.Fatalf("contributor booking for u2: got %v, want ErrForbidden", err)
	}

	b, err := m.Create(ctx, admin, in())
	if err != nil {
		t.Fatalf("admin booking for u2: %v", err)
	}

	if b.OwnerID != "u2" {
		t.Fatalf("owner = %q, want u2", b.OwnerID)
	}
}

func TestRescheduleOntoOwnSlot(t *testing.T) {
	m := newManager()
	b := create(t, m, u1, 0, 30)

	got, err := m.Reschedule(context.Background(), u1, &booking.RescheduleInput{ID: b.ID, Slot: b.Slot})
	if err != nil {
		t.Fatalf("reschedule onto own slot: %v", err)
	}

	if got.ID != b.ID || got.Slot != b.Slot {
		t.Fatalf("rescheduled = %+v", got)
	}
}

func TestRescheduleOverlappingOwnRange(t *testing.T) {
	m := newManager()
	b := create(t, m, u1, 0, 30)

	slot := booking.Slot{Date: date, Hour: 9, StartMinute: 15, EndMinute: 45}

	got, err := m.Reschedule(context.Background(), u1, &booking.RescheduleInput{ID: b.ID, Slot: slot})
	if err != nil {
		t.Fatalf("reschedule overlapping itself: %v", err)
	}

	if got.Slot != slot || got.Title != b.Title {
		t.Fatalf("rescheduled = %+v", got)
	}
}

func TestRescheduleConflictKeepsBooking(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	first := create(t, m, u1, 0, 30)
	second := create(t, m, u1, 30, 60)

	_, err := m.Reschedule(ctx, u1, &booking.RescheduleInput{
		ID:   second.ID,
		Slot: booking.Slot{Date: date, Hour: 9, StartMinute: 20, EndMinute: 40},
	})

	conflict := booking.IsConflictError(err)
	if conflict == nil {
		t.Fatalf("got %v, want conflict", err)
	}

	if ids := conflict.ConflictingIDs(); len(ids) != 1 || ids[0] != first.ID {
		t.Fatalf("conflicting ids = %v, want [%d]", ids, first.ID)
	}

	got, err := m.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Slot != second.Slot {
		t.Fatalf("failed reschedule moved the booking to %+v", got.Slot)
	}
}

func TestRescheduleAcrossBuckets(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	b := create(t, m, u1, 0, 30)

	slot := booking.Slot{Date: date.AddDays(1), Hour: 14, StartMinute: 0, EndMinute: 30}
	if _, err := m.Reschedule(ctx, u1, &booking.RescheduleInput{ID: b.ID, Slot: slot}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	create(t, m, u1, 0, 30)
}

func TestRescheduleErrors(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	b := create(t, m, u1, 0, 30)

	_, err := m.Reschedule(ctx, u1, &booking.RescheduleInput{ID: 999, Slot: b.Slot})
	if !errors.Is(err, booking.ErrRecordNotFound) {
		t.Fatalf("unknown id: got %v, want ErrRecordNotFound", err)
	}

	_, err = m.Reschedule(ctx, u2, &booking.RescheduleInput{ID: b.ID, Slot: b.Slot})
	if !errors.Is(err, booking.ErrForbidden) {
		t.Fatalf("stranger: got %v, want ErrForbidden", err)
	}

	_, err = m.Reschedule(ctx, u1, &booking.RescheduleInput{
		ID:   b.ID,
		Slot: booking.Slot{Date: date, Hour: 9, StartMinute: 40, EndMinute: 30},
	})
	if booking.IsInputError(err) == nil {
		t.Fatalf("reversed range: got %v, want input error", err)
	}
}

func TestDeleteFreesRange(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	b := create(t, m, u1, 10, 40)

	if err := m.Delete(ctx, u2, b.ID); !errors.Is(err, booking.ErrForbidden) {
		t.Fatalf("stranger delete: got %v, want ErrForbidden", err)
	}

	if err := m.Delete(ctx, admin, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := m.Delete(ctx, admin, b.ID); !errors.Is(err, booking.ErrRecordNotFound) {
		t.Fatalf("second delete: got %v, want ErrRecordNotFound", err)
	}

	create(t, m, u1, 10, 40)
}

func TestListRange(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	create(t, m, u1, 0, 30)

	got, err := m.List(ctx, date, date.AddDays(1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d bookings, want 1", len(got))
	}

	got, err = m.List(ctx, date.AddDays(1), date.AddDays(2))
	if err != nil || len(got) != 0 {
		t.Fatalf("next day = %v, %v", got, err)
	}

	if _, err := m.List(ctx, date, date); booking.IsInputError(err) == nil {
		t.Fatalf("empty range: got %v, want input error", err)
	}
}

func TestConcurrentOverlappingCreates(t *testing.T) {
	m := newManager()

	const workers = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := m.Create(context.Background(), u1, &booking.CreateInput{
				Slot: booking.Slot{Date: date, Hour: 9, StartMinute: i % 10, EndMinute: 30 + i%10},
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case booking.IsConflictError(err) != nil:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Fatalf("succeeded=%d conflicts=%d, want exactly one winner", succeeded, conflicts)
	}
}
