package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDJNameLength is counted in runes of the name as sent, not bytes.
const MaxDJNameLength = 100

// DefaultMaxDuration caps a single reservation.
const DefaultMaxDuration = time.Hour

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start.UTC(), End: end.UTC()}
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Overlaps uses the open-interval test, so ranges that only touch do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Reservation owns the DJ booth for Range. It is never mutated after creation.
type Reservation struct {
	ID           string
	DJName       string
	Range        TimeRange
	PasscodeHash string
	CreatedAt    time.Time
}

// TimeSlot is one grid step of an availability query.
type TimeSlot struct {
	Range     TimeRange
	Available bool
}

// ValidateDJName rejects blank or overlong names with ErrInvalidInput.
// Accepted names are stored exactly as given.
func ValidateDJName(name string) error {
	if strings.TrimSpace(name) == "" || !utf8.ValidString(name) {
		return ErrInvalidInput
	}
	if utf8.RuneCountInString(name) > MaxDJNameLength {
		return ErrInvalidInput
	}
	return nil
}
