package booking

import (
	"time"

	"github.com/avstrong/studio/internal/calendar"
)

const (
	HoursPerDay    = 24
	MinutesPerHour = 60
)

const (
	EventTypeLive        = "Live"
	EventTypePreRecorded = "PreRecorded"
)

// Bucket is the (date, hour) scope of every conflict check.
type Bucket struct {
	Date calendar.Date
	Hour int
}

// Slot is a half-open minute range [StartMinute, EndMinute) inside one hour of one day.
type Slot struct {
	Date        calendar.Date `json:"date"`
	Hour        int           `json:"hour"`
	StartMinute int           `json:"start_minute"`
	EndMinute   int           `json:"end_minute"`
}

func (s Slot) Bucket() Bucket {
	return Bucket{Date: s.Date, Hour: s.Hour}
}

type Details struct {
	Title     string `json:"title"`
	EventType string `json:"event_type"`
	HostCount int    `json:"host_count"`
	HasGuest  bool   `json:"has_guest"`
}

type Booking struct {
	ID int64 `json:"id"`
	Slot
	Details
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the already authenticated caller of a lifecycle operation.
type Actor struct {
	ID         string
	Privileged bool
}

type CreateInput struct {
	Slot
	Details
	OwnerID string `json:"owner_id"`
}

type RescheduleInput struct {
	ID int64 `json:"-"`
	Slot
}
