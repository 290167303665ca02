package payment

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/studio/internal/booking"
)

var minutesPerHour = decimal.NewFromInt(booking.MinutesPerHour)

type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

type interval struct {
	start   time.Time
	end     time.Time
	details booking.Details
}

func (i interval) minutes() int {
	return int(i.end.Sub(i.start) / time.Minute)
}

// continuedBy reports whether next extends i into the same logical event: it
// must start exactly where i ends and carry identical details.
func (i interval) continuedBy(next interval) bool {
	return i.end.Equal(next.start) && i.details == next.details
}

// Calculate derives the summary of ownerID for period from bookings, which the
// caller has already narrowed to the period. Bookings of other owners are ignored.
// Back-to-back bookings with identical details count as one event; any gap or any
// differing detail starts a new one.
func (c *Calculator) Calculate(ownerID string, period Period, bookings []*booking.Booking) (*Summary, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}

	if err := period.Validate(); err != nil {
		return nil, err
	}

	intervals := make([]interval, 0, len(bookings))

	for _, b := range bookings {
		if b.OwnerID != ownerID {
			continue
		}

		intervals = append(intervals, interval{
			start:   b.Date.At(b.Hour, b.StartMinute),
			end:     b.Date.At(b.Hour, b.EndMinute),
			details: b.Details,
		})
	}

	slices.SortStableFunc(intervals, func(a, b interval) int {
		return a.start.Compare(b.start)
	})

	var (
		totalMinutes int
		events       int
	)

	for idx := 0; idx < len(intervals); {
		current := intervals[idx]
		idx++

		for idx < len(intervals) && current.continuedBy(intervals[idx]) {
			current.end = intervals[idx].end
			idx++
		}

		totalMinutes += current.minutes()
		events++
	}

	baseAmount := c.rates.HourlyRate.Mul(decimal.NewFromInt(int64(totalMinutes))).Div(minutesPerHour)
	eventBonusAmount := c.rates.EventBonus.Mul(decimal.NewFromInt(int64(events)))
	subtotal := baseAmount.Add(eventBonusAmount)
	vatAmount := subtotal.Mul(c.rates.VATRate)

	return &Summary{
		OwnerID:           ownerID,
		Period:            period,
		TotalMinutes:      totalMinutes,
		HourlyRate:        c.rates.HourlyRate,
		BaseAmount:        baseAmount,
		MergedEventCount:  events,
		EventBonusAmount:  eventBonusAmount,
		Subtotal:          subtotal,
		VATRate:           c.rates.VATRate,
		VATAmount:         vatAmount,
		TotalIncludingVAT: subtotal.Add(vatAmount),
	}, nil
}
