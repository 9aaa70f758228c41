package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidPasscode     = errors.New("invalid passcode")
	ErrInvalidTimeInterval = errors.New("time must be on 15-minute boundaries")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
	ErrDurationTooLong     = errors.New("reservation duration too long")
	ErrPastTime            = errors.New("reservation starts in the past")
	ErrBeforeEventStart    = errors.New("reservation starts before event start")
	ErrExceedsEventEnd     = errors.New("reservation extends beyond event end")
	ErrRangeTooLarge       = errors.New("query range too large")
	ErrTimeConflict        = errors.New("time slot already reserved")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage unavailable")
)

// StorageError reports a backend failure unrelated to the request itself.
// Callers may retry these; validation errors are never wrapped in it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
