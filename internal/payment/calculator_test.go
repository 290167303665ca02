package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
)

var june2024 = Period{Year: 2024, Month: time.June}

func show(id int64, owner string, day, hour, start, end int, title string) *booking.Booking {
	return &booking.Booking{
		ID: id,
		Slot: booking.Slot{
			Date:        calendar.New(2024, time.June, day),
			Hour:        hour,
			StartMinute: start,
			EndMinute:   end,
		},
		Details: booking.Details{
			Title:     title,
			EventType: booking.EventTypeLive,
			HostCount: 1,
		},
		OwnerID: owner,
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestCalculateMergesAdjacentIdenticalBookings(t *testing.T) {
	c := NewCalculator(DefaultRates())

	summary, err := c.Calculate("u1", june2024, []*booking.Booking{
		show(2, "u1", 10, 10, 30, 60, "Show"),
		show(1, "u1", 10, 10, 0, 30, "Show"),
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if summary.MergedEventCount != 1 || summary.TotalMinutes != 60 {
		t.Fatalf("got %d events / %d minutes, want 1 / 60", summary.MergedEventCount, summary.TotalMinutes)
	}

	assertDecimal(t, "base", summary.BaseAmount, "750")
	assertDecimal(t, "event bonus", summary.EventBonusAmount, "300")
	assertDecimal(t, "subtotal", summary.Subtotal, "1050")
	assertDecimal(t, "vat", summary.VATAmount, "262.50")
	assertDecimal(t, "total", summary.TotalIncludingVAT, "1312.50")
}

func TestCalculateDifferentTitleSplitsEvents(t *testing.T) {
	c := NewCalculator(DefaultRates())

	summary, err := c.Calculate("u1", june2024, []*booking.Booking{
		show(1, "u1", 10, 10, 0, 30, "Show"),
		show(2, "u1", 10, 10, 30, 60, "Other show"),
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if summary.MergedEventCount != 2 || summary.TotalMinutes != 60 {
		t.Fatalf("got %d events / %d minutes, want 2 / 60", summary.MergedEventCount, summary.TotalMinutes)
	}

	assertDecimal(t, "event bonus", summary.EventBonusAmount, "600")
}

func TestCalculateMergeRules(t *testing.T) {
	cases := []struct {
		name       string
		bookings   []*booking.Booking
		wantEvents int
		wantMins   int
	}{
		{
			name: "gap of one minute",
			bookings: []*booking.Booking{
				show(1, "u1", 10, 10, 0, 30, "Show"),
				show(2, "u1", 10, 10, 31, 60, "Show"),
			},
			wantEvents: 2,
			wantMins:   59,
		},
		{
			name: "adjacent across hour boundary",
			bookings: []*booking.Booking{
				show(1, "u1", 10, 9, 30, 60, "Show"),
				show(2, "u1", 10, 10, 0, 15, "Show"),
			},
			wantEvents: 1,
			wantMins:   45,
		},
		{
			name: "chain of three",
			bookings: []*booking.Booking{
				show(1, "u1", 10, 10, 0, 20, "Show"),
				show(2, "u1", 10, 10, 20, 40, "Show"),
				show(3, "u1", 10, 10, 40, 60, "Show"),
			},
			wantEvents: 1,
			wantMins:   60,
		},
		{
			name: "same slot on different days",
			bookings: []*booking.Booking{
				show(1, "u1", 10, 10, 0, 30, "Show"),
				show(2, "u1", 11, 10, 0, 30, "Show"),
			},
			wantEvents: 2,
			wantMins:   60,
		},
		{
			name: "other owner ignored",
			bookings: []*booking.Booking{
				show(1, "u1", 10, 10, 0, 30, "Show"),
				show(2, "u2", 10, 10, 30, 60, "Show"),
			},
			wantEvents: 1,
			wantMins:   30,
		},
		{
			name:       "no bookings",
			wantEvents: 0,
			wantMins:   0,
		},
	}

	c := NewCalculator(DefaultRates())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary, err := c.Calculate("u1", june2024, tc.bookings)
			if err != nil {
				t.Fatalf("calculate: %v", err)
			}

			if summary.MergedEventCount != tc.wantEvents || summary.TotalMinutes != tc.wantMins {
				t.Fatalf("got %d events / %d minutes, want %d / %d",
					summary.MergedEventCount, summary.TotalMinutes, tc.wantEvents, tc.wantMins)
			}
		})
	}
}

func TestCalculateDetailsMustMatchExactly(t *testing.T) {
	first := show(1, "u1", 10, 10, 0, 30, "Show")
	second := show(2, "u1", 10, 10, 30, 60, "Show")
	second.HasGuest = true

	summary, err := NewCalculator(DefaultRates()).Calculate("u1", june2024, []*booking.Booking{first, second})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if summary.MergedEventCount != 2 {
		t.Fatalf("guest flag difference must split events, got %d", summary.MergedEventCount)
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	c := NewCalculator(DefaultRates())

	if _, err := c.Calculate("  ", june2024, nil); !errors.Is(err, ErrOwnerRequired) {
		t.Fatalf("blank owner: got %v, want ErrOwnerRequired", err)
	}

	if _, err := c.Calculate("u1", Period{Year: 2024, Month: 13}, nil); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("month 13: got %v, want ErrInvalidPeriod", err)
	}
}

func TestCalculateUsesConfiguredRates(t *testing.T) {
	c := NewCalculator(Rates{
		HourlyRate: decimal.NewFromInt(600),
		EventBonus: decimal.Zero,
		VATRate:    decimal.Zero,
	})

	summary, err := c.Calculate("u1", june2024, []*booking.Booking{show(1, "u1", 10, 10, 0, 20, "Show")})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	assertDecimal(t, "base", summary.BaseAmount, "200")
	assertDecimal(t, "total", summary.TotalIncludingVAT, "200")
}
