package booking

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrForbidden      = errors.New("operation not allowed for this caller")
)

// ConflictError reports that a slot overlaps bookings already stored in its bucket.
type ConflictError struct {
	bucket      Bucket
	conflicting []int64
}

func NewConflictError(bucket Bucket, conflicting ...int64) *ConflictError {
	return &ConflictError{
		bucket:      bucket,
		conflicting: conflicting,
	}
}

func IsConflictError(err error) *ConflictError {
	if err == nil {
		return nil
	}

	var conflictError *ConflictError

	if errors.As(err, &conflictError) {
		return conflictError
	}

	return nil
}

func (e *ConflictError) Error() string {
	if len(e.conflicting) == 0 {
		return fmt.Sprintf("slot on %v at hour %d overlaps an existing booking", e.bucket.Date, e.bucket.Hour)
	}

	return fmt.Sprintf("slot on %v at hour %d overlaps bookings %v", e.bucket.Date, e.bucket.Hour, e.conflicting)
}

// ConflictingIDs may be empty when the overlap was detected by the storage engine.
func (e *ConflictError) ConflictingIDs() []int64 {
	return e.conflicting
}

type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{
		fields: make(map[string][]string),
	}
}

func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}

	var inputError *InputError

	if errors.As(err, &inputError) {
		return inputError
	}

	return nil
}

func (ie *InputError) fieldsCount() int {
	return len(ie.fields)
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) Error() string {
	return fmt.Sprintf("%+v", ie.fields)
}

func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}
