package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rates are the configured constants of the compensation formula, in SEK.
type Rates struct {
	HourlyRate decimal.Decimal
	EventBonus decimal.Decimal
	VATRate    decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		HourlyRate: decimal.NewFromInt(750), //nolint:gomnd
		EventBonus: decimal.NewFromInt(300), //nolint:gomnd
		VATRate:    decimal.RequireFromString("0.25"),
	}
}

// Summary is the monthly compensation of one contributor. At most one summary
// exists per (OwnerID, Period).
type Summary struct {
	ID                int64           `json:"id"`
	OwnerID           string          `json:"owner_id"`
	Period            Period          `json:"period"`
	TotalMinutes      int             `json:"total_minutes"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	MergedEventCount  int             `json:"merged_event_count"`
	EventBonusAmount  decimal.Decimal `json:"event_bonus_amount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	VATAmount         decimal.Decimal `json:"vat_amount"`
	TotalIncludingVAT decimal.Decimal `json:"total_including_vat"`
	CalculatedAt      time.Time       `json:"calculated_at"`
}

type BatchResult struct {
	Period    Period `json:"period"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
}
