package app

import (
	"context"
	"time"

	"github.com/outductor/stream-system-backend/internal/clock"
	"github.com/outductor/stream-system-backend/internal/domain"
)

type AvailabilityService struct {
	store  ReservationStore
	clock  clock.Clock
	window domain.EventWindow
}

func NewAvailabilityService(store ReservationStore, clk clock.Clock, window domain.EventWindow) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		clock:  clk,
		window: window,
	}
}

// GetAvailableSlots lists every grid slot starting in [start, end) in
// ascending order. A nil end means start plus the window's default horizon.
// A slot is available when it lies inside the event window, starts strictly
// after now and overlaps no reservation.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, start time.Time, end *time.Time) ([]domain.TimeSlot, error) {
	q, err := s.window.EffectiveQueryWindow(start, end)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	// The last slot may run past an unaligned query end.
	lookup := domain.TimeRange{Start: q.Start, End: domain.CeilToGrid(q.End)}
	taken, err := s.store.FindOverlapping(ctx, lookup)
	if err != nil {
		return nil, err
	}

	slots := make([]domain.TimeSlot, 0, int(lookup.Duration()/domain.Granularity))
	i := 0
	for t := range domain.AlignedSlotsBetween(q.Start, q.End) {
		slot := domain.NewTimeRange(t, t.Add(domain.Granularity))

		// taken is sorted and non-overlapping, so a single forward pass suffices.
		for i < len(taken) && !taken[i].Range.End.After(slot.Start) {
			i++
		}
		reserved := i < len(taken) && taken[i].Range.Overlaps(slot)

		slots = append(slots, domain.TimeSlot{
			Range:     slot,
			Available: !reserved && slot.Start.After(now) && s.window.ContainsRange(slot),
		})
	}
	return slots, nil
}

// Lineup is who is on the booth now and who plays next.
type Lineup struct {
	Current *domain.Reservation
	Next    *domain.Reservation
}

// Lineup looks one default horizon ahead of now.
func (s *AvailabilityService) Lineup(ctx context.Context) (Lineup, error) {
	now := s.clock.Now()
	horizon := s.window.DefaultHorizon
	if horizon <= 0 {
		horizon = domain.DefaultQueryHorizon
	}

	upcoming, err := s.store.FindInRange(ctx, domain.TimeRange{Start: now, End: now.Add(horizon)})
	if err != nil {
		return Lineup{}, err
	}

	var out Lineup
	for i := range upcoming {
		res := upcoming[i]
		switch {
		case res.Range.Contains(now):
			out.Current = &res
		case res.Range.Start.After(now) && out.Next == nil:
			out.Next = &res
		}
	}
	return out, nil
}
