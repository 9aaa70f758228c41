package domain

import "time"

const (
	DefaultQueryHorizon  = 72 * time.Hour
	DefaultMaxQueryRange = 72 * time.Hour
)

// EventWindow bounds all valid reservations. A zero Start or End leaves that
// side open, in which case the policy is permissive on that side.
type EventWindow struct {
	Start time.Time
	End   time.Time

	// DefaultHorizon is used when an availability query omits its end.
	DefaultHorizon time.Duration
	// MaxQueryRange caps the span of a single availability query.
	MaxQueryRange time.Duration
}

// NewEventWindow returns a window with the default horizon and query cap.
func NewEventWindow(start, end time.Time) EventWindow {
	w := EventWindow{
		DefaultHorizon: DefaultQueryHorizon,
		MaxQueryRange:  DefaultMaxQueryRange,
	}
	if !start.IsZero() {
		w.Start = start.UTC()
	}
	if !end.IsZero() {
		w.End = end.UTC()
	}
	return w
}

func (w EventWindow) HasStart() bool { return !w.Start.IsZero() }
func (w EventWindow) HasEnd() bool   { return !w.End.IsZero() }

// Bounded reports whether at least one side is configured.
func (w EventWindow) Bounded() bool {
	return w.HasStart() || w.HasEnd()
}

// Range returns the window as a TimeRange with zero values for open sides.
func (w EventWindow) Range() TimeRange {
	return TimeRange{Start: w.Start, End: w.End}
}

// Contains reports Start <= t < End for the configured sides.
func (w EventWindow) Contains(t time.Time) bool {
	if w.HasStart() && t.Before(w.Start) {
		return false
	}
	if w.HasEnd() && !t.Before(w.End) {
		return false
	}
	return true
}

// ContainsRange reports whether r starts inside the window and ends no later
// than the window end.
func (w EventWindow) ContainsRange(r TimeRange) bool {
	if !w.Contains(r.Start) {
		return false
	}
	return !w.HasEnd() || !r.End.After(w.End)
}

// CheckRange returns the window violation for a reservation range, if any.
func (w EventWindow) CheckRange(r TimeRange) error {
	if w.HasStart() && r.Start.Before(w.Start) {
		return ErrBeforeEventStart
	}
	if w.HasEnd() && (!r.Start.Before(w.End) || r.End.After(w.End)) {
		return ErrExceedsEventEnd
	}
	return nil
}

// EffectiveQueryWindow derives the range an availability query covers.
// A nil end means start plus the default horizon.
func (w EventWindow) EffectiveQueryWindow(start time.Time, end *time.Time) (TimeRange, error) {
	horizon := w.DefaultHorizon
	if horizon <= 0 {
		horizon = DefaultQueryHorizon
	}
	maxRange := w.MaxQueryRange
	if maxRange <= 0 {
		maxRange = DefaultMaxQueryRange
	}

	effectiveEnd := start.Add(horizon)
	if end != nil {
		effectiveEnd = *end
	}
	if !effectiveEnd.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if effectiveEnd.Sub(start) > maxRange {
		return TimeRange{}, ErrRangeTooLarge
	}
	return NewTimeRange(start, effectiveEnd), nil
}
