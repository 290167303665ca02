package payment

import "errors"

var (
	ErrInvalidPeriod = errors.New("invalid payroll period")
	ErrOwnerRequired = errors.New("owner id is required")
)
