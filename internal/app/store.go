package app

import (
	"context"

	"github.com/outductor/stream-system-backend/internal/domain"
)

// ReservationStore is the ordered reservation collection behind the engine.
// InsertIfNoConflict is the only place the no-overlap invariant is enforced:
// implementations must run the overlap check and the insert as one step,
// serialized against every other insert and delete.
type ReservationStore interface {
	// FindOverlapping returns reservations overlapping r, ascending by start.
	FindOverlapping(ctx context.Context, r domain.TimeRange) ([]domain.Reservation, error)
	// FindInRange lists reservations intersecting r. A zero bound is open.
	FindInRange(ctx context.Context, r domain.TimeRange) ([]domain.Reservation, error)
	GetByID(ctx context.Context, id string) (domain.Reservation, error)
	// InsertIfNoConflict assigns the ID and returns the stored reservation,
	// or domain.ErrTimeConflict.
	InsertIfNoConflict(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	DeleteByID(ctx context.Context, id string) (domain.Reservation, error)
	Ping(ctx context.Context) error
}

// EventPublisher delivers domain events to a broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type nopPublisher struct{}

func (nopPublisher) PublishJSON(context.Context, string, any) error { return nil }
