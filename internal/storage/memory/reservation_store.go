package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/outductor/stream-system-backend/internal/domain"
)

// ReservationStore keeps reservations in process. All writes are serialized
// by one mutex covering the whole timeline.
type ReservationStore struct {
	mu sync.RWMutex
	// byStart is sorted by start. Since stored ranges never overlap it is
	// sorted by end as well.
	byStart []domain.Reservation
	byID    map[string]int
	newID   func() string
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		byID:  make(map[string]int),
		newID: uuid.NewString,
	}
}

func (s *ReservationStore) FindOverlapping(ctx context.Context, r domain.TimeRange) ([]domain.Reservation, error) {
	if err := checkContext(ctx, "find overlapping reservations"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlappingLocked(r), nil
}

func (s *ReservationStore) FindInRange(ctx context.Context, r domain.TimeRange) ([]domain.Reservation, error) {
	if err := checkContext(ctx, "find reservations in range"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Reservation, 0)
	for _, res := range s.byStart[s.firstEndingAfterLocked(r.Start):] {
		if !r.End.IsZero() && !res.Range.Start.Before(r.End) {
			break
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *ReservationStore) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	if err := checkContext(ctx, "get reservation"); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return s.byStart[idx], nil
}

func (s *ReservationStore) InsertIfNoConflict(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	if err := checkContext(ctx, "insert reservation"); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.overlappingLocked(res.Range)) > 0 {
		return domain.Reservation{}, domain.ErrTimeConflict
	}

	res.ID = s.newID()
	idx := sort.Search(len(s.byStart), func(i int) bool {
		return !s.byStart[i].Range.Start.Before(res.Range.Start)
	})
	s.byStart = append(s.byStart, domain.Reservation{})
	copy(s.byStart[idx+1:], s.byStart[idx:])
	s.byStart[idx] = res
	s.reindexLocked(idx)

	return res, nil
}

func (s *ReservationStore) DeleteByID(ctx context.Context, id string) (domain.Reservation, error) {
	if err := checkContext(ctx, "delete reservation"); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	res := s.byStart[idx]
	s.byStart = append(s.byStart[:idx], s.byStart[idx+1:]...)
	delete(s.byID, id)
	s.reindexLocked(idx)

	return res, nil
}

func (s *ReservationStore) Ping(ctx context.Context) error {
	return checkContext(ctx, "ping")
}

// Len reports the number of stored reservations.
func (s *ReservationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byStart)
}

func (s *ReservationStore) overlappingLocked(r domain.TimeRange) []domain.Reservation {
	out := make([]domain.Reservation, 0)
	for _, res := range s.byStart[s.firstEndingAfterLocked(r.Start):] {
		if !res.Range.Start.Before(r.End) {
			break
		}
		out = append(out, res)
	}
	return out
}

// firstEndingAfterLocked returns the index of the first reservation whose end
// is after t. A zero t matches from the beginning.
func (s *ReservationStore) firstEndingAfterLocked(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return sort.Search(len(s.byStart), func(i int) bool {
		return s.byStart[i].Range.End.After(t)
	})
}

// checkContext reports a done context as a storage failure, the same way the
// Postgres store surfaces a canceled query.
func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	return nil
}

func (s *ReservationStore) reindexLocked(from int) {
	for i := from; i < len(s.byStart); i++ {
		s.byID[s.byStart[i].ID] = i
	}
}
