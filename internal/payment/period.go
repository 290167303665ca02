package payment

import (
	"fmt"
	"time"

	"github.com/avstrong/studio/internal/calendar"
)

// Period is one payroll cycle: a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func NewPeriod(year int, month time.Month) (Period, error) {
	p := Period{Year: year, Month: month}

	if err := p.Validate(); err != nil {
		return Period{}, err
	}

	return p, nil
}

// PreviousPeriod is the month before the one containing now.
func PreviousPeriod(now time.Time) Period {
	first := calendar.New(now.Year(), now.Month(), 1).AddMonths(-1)

	return Period{Year: first.Year, Month: first.Month}
}

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("month %d must be within 1..12: %w", p.Month, ErrInvalidPeriod)
	}

	if p.Year < 1 {
		return fmt.Errorf("year %d must be positive: %w", p.Year, ErrInvalidPeriod)
	}

	return nil
}

// Range returns the half-open date range [first day of month, first day of next month).
func (p Period) Range() (calendar.Date, calendar.Date) {
	from := calendar.New(p.Year, p.Month, 1)

	return from, from.AddMonths(1)
}

func (p Period) After(other Period) bool {
	if p.Year != other.Year {
		return p.Year > other.Year
	}

	return p.Month > other.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
