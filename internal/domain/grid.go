package domain

import (
	"iter"
	"time"
)

// Granularity is the booking grid step. Every reservation bound and every
// availability slot starts on a multiple of it since the Unix epoch.
const Granularity = 15 * time.Minute

// IsAligned reports whether t sits exactly on a grid boundary. The check is
// done on the absolute instant, so the location attached to t is irrelevant.
func IsAligned(t time.Time) bool {
	return t.Equal(t.Truncate(Granularity))
}

// CeilToGrid returns the first aligned instant at or after t.
func CeilToGrid(t time.Time) time.Time {
	floor := t.Truncate(Granularity)
	if floor.Before(t) {
		return floor.Add(Granularity)
	}
	return floor
}

// AlignedSlotsBetween yields every aligned instant in [start, end).
// The sequence can be ranged over any number of times.
func AlignedSlotsBetween(start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for t := CeilToGrid(start); t.Before(end); t = t.Add(Granularity) {
			if !yield(t) {
				return
			}
		}
	}
}
