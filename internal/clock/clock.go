// Package clock supplies "now" to the booking rules. Past-slot checks, the
// lineup and created-at stamps all read it.
package clock

import "time"

// Clock is read once per service call. Every rule in that call then judges
// against the same instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem is the wall clock the API runs on. Instants come back in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed pins now to t, e.g. the evening before the event in tests.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Func lets a test move time along between calls, such as stepping through
// a set to watch the lineup change.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f().UTC()
}
