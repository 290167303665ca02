package seed

import (
	"context"
	"fmt"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
)

const Actor = "seed"

type creator interface {
	Create(ctx context.Context, actor booking.Actor, input *booking.CreateInput) (*booking.Booking, error)
}

func demoBookings(start calendar.Date) []*booking.CreateInput {
	show := func(day, hour, from, to int, title, eventType string, hosts int, guest bool, owner string) *booking.CreateInput {
		return &booking.CreateInput{
			Slot: booking.Slot{Date: start.AddDays(day), Hour: hour, StartMinute: from, EndMinute: to},
			Details: booking.Details{
				Title:     title,
				EventType: eventType,
				HostCount: hosts,
				HasGuest:  guest,
			},
			OwnerID: owner,
		}
	}

	return []*booking.CreateInput{
		show(0, 7, 0, 30, "Morning show", booking.EventTypeLive, 2, false, "anna"),
		show(0, 7, 30, 60, "Morning show", booking.EventTypeLive, 2, false, "anna"),
		show(0, 8, 0, 45, "Morning show", booking.EventTypeLive, 2, true, "anna"),
		show(0, 12, 0, 15, "News", booking.EventTypePreRecorded, 1, false, "erik"),
		show(1, 18, 0, 60, "Evening jazz", booking.EventTypeLive, 1, true, "erik"),
		show(2, 9, 15, 45, "", "", 0, false, "lina"),
	}
}

// Up books a small demo schedule starting at start through the booking manager.
// Slots that are already taken are skipped, so running it twice is harmless.
func Up(ctx context.Context, l *logger.Logger, bookings creator, start calendar.Date) (int, error) {
	seeder := booking.Actor{ID: Actor, Privileged: true}
	created := 0

	for _, input := range demoBookings(start) {
		b, err := bookings.Create(ctx, seeder, input)
		if booking.IsConflictError(err) != nil {
			l.LogDebugf("Seed slot %v %02d:%02d is taken, skipping", input.Date, input.Hour, input.StartMinute)

			continue
		}

		if err != nil {
			return created, fmt.Errorf("seed booking %q on %v: %w", input.Title, input.Date, err)
		}

		l.LogDebugf("Seed booking %d created for %s", b.ID, b.OwnerID)

		created++
	}

	l.LogInfo("Seed applied: %d bookings created", created)

	return created, nil
}
