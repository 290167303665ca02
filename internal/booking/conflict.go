package booking

// ValidateSlot checks the bounds of a slot before any storage access.
func ValidateSlot(slot Slot) error {
	inputErr := newInputError()
	slot.validate(inputErr)

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

func (s Slot) validate(inputErr *InputError) {
	if s.Date.IsZero() {
		inputErr.addError("date", "provide date")
	}

	if s.Hour < 0 || s.Hour >= HoursPerDay {
		inputErr.addError("hour", "hour must be within 0..23")
	}

	if s.StartMinute < 0 || s.StartMinute >= MinutesPerHour {
		inputErr.addError("start_minute", "start_minute must be within 0..59")
	}

	if s.EndMinute < 1 || s.EndMinute > MinutesPerHour {
		inputErr.addError("end_minute", "end_minute must be within 1..60")
	}

	if s.StartMinute >= s.EndMinute {
		inputErr.addError("end_minute", "end_minute must be greater than start_minute")
	}
}

// Overlaps reports whether the half-open ranges [a1, a2) and [b1, b2) share a minute.
func Overlaps(a1, a2, b1, b2 int) bool {
	return !(a2 <= b1 || b2 <= a1)
}

// Resolve decides whether slot may be booked next to existing, the bookings of the
// same bucket. It returns an *InputError for a malformed slot, a *ConflictError
// naming every overlapping booking, or nil.
func Resolve(slot Slot, existing []*Booking) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	var conflicting []int64

	for _, b := range existing {
		if b.Bucket() != slot.Bucket() {
			continue
		}

		if Overlaps(slot.StartMinute, slot.EndMinute, b.StartMinute, b.EndMinute) {
			conflicting = append(conflicting, b.ID)
		}
	}

	if len(conflicting) > 0 {
		return NewConflictError(slot.Bucket(), conflicting...)
	}

	return nil
}
