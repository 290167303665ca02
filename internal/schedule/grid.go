package schedule

import (
	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
)

const untitled = "Untitled"

// Detail describes one booking painted into an hour.
type Detail struct {
	BookingID   int64  `json:"booking_id"`
	Title       string `json:"title"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

type Hour struct {
	Hour     int                          `json:"hour"`
	Minutes  [booking.MinutesPerHour]bool `json:"minutes"`
	Bookings []Detail                     `json:"bookings"`
}

type Day struct {
	Date  calendar.Date             `json:"date"`
	Hours [booking.HoursPerDay]Hour `json:"hours"`
}

// Window is a run of consecutive days starting at Start.
type Window struct {
	Start calendar.Date `json:"start"`
	Days  []*Day        `json:"days"`
}

// NewWindow returns days empty days starting at start.
func NewWindow(start calendar.Date, days int) *Window {
	w := &Window{
		Start: start,
		Days:  make([]*Day, 0, max(days, 0)),
	}

	for i := 0; i < days; i++ {
		day := &Day{Date: start.AddDays(i)}

		for h := range day.Hours {
			day.Hours[h] = Hour{Hour: h, Bookings: []Detail{}}
		}

		w.Days = append(w.Days, day)
	}

	return w
}

// End is the first date after the window.
func (w *Window) End() calendar.Date {
	return w.Start.AddDays(len(w.Days))
}

// Day returns the day of w dated date, or nil.
func (w *Window) Day(date calendar.Date) *Day {
	for _, d := range w.Days {
		if d.Date == date {
			return d
		}
	}

	return nil
}

// Paint marks the minutes of every booking that falls inside w. Bookings outside
// the window are skipped; minute bounds are clamped to [0, 60].
func Paint(w *Window, bookings []*booking.Booking) {
	for _, b := range bookings {
		day := w.Day(b.Date)
		if day == nil || b.Hour < 0 || b.Hour >= booking.HoursPerDay {
			continue
		}

		hour := &day.Hours[b.Hour]
		start := clamp(b.StartMinute)
		end := clamp(b.EndMinute)

		for m := start; m < end; m++ {
			hour.Minutes[m] = true
		}

		title := b.Title
		if title == "" {
			title = untitled
		}

		hour.Bookings = append(hour.Bookings, Detail{
			BookingID:   b.ID,
			Title:       title,
			StartMinute: start,
			EndMinute:   end,
		})
	}
}

func clamp(minute int) int {
	return min(max(minute, 0), booking.MinutesPerHour)
}
