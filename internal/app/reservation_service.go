package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/outductor/stream-system-backend/internal/clock"
	"github.com/outductor/stream-system-backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	EventReservationCreated = "reservation.created"
	EventReservationDeleted = "reservation.deleted"
)

type ReservationService struct {
	store        ReservationStore
	clock        clock.Clock
	window       domain.EventWindow
	maxDuration  time.Duration
	passcodeCost int
	publisher    EventPublisher
	logger       logrus.FieldLogger
}

func NewReservationService(store ReservationStore, clk clock.Clock, window domain.EventWindow, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		store:       store,
		clock:       clk,
		window:      window,
		maxDuration: domain.DefaultMaxDuration,
		publisher:   nopPublisher{},
		logger:      discardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithMaxDuration overrides the default one hour cap.
func WithMaxDuration(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.maxDuration = d
		}
	}
}

// WithPasscodeCost sets the bcrypt cost used for new passcode hashes.
func WithPasscodeCost(cost int) ReservationServiceOption {
	return func(s *ReservationService) {
		s.passcodeCost = cost
	}
}

func WithPublisher(p EventPublisher) ReservationServiceOption {
	return func(s *ReservationService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l logrus.FieldLogger) ReservationServiceOption {
	return func(s *ReservationService) {
		if l != nil {
			s.logger = l
		}
	}
}

type CreateReservationInput struct {
	DJName    string
	StartTime time.Time
	EndTime   time.Time
	Passcode  string
}

// CreateReservation validates the request in a fixed order, the first failing
// check deciding the error, then hands the reservation to the store.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	now := s.clock.Now()

	if err := domain.ValidateDJName(in.DJName); err != nil {
		return domain.Reservation{}, err
	}
	if err := domain.ValidatePasscode(in.Passcode); err != nil {
		return domain.Reservation{}, err
	}
	if !domain.IsAligned(in.StartTime) || !domain.IsAligned(in.EndTime) {
		return domain.Reservation{}, domain.ErrInvalidTimeInterval
	}

	r := domain.NewTimeRange(in.StartTime, in.EndTime)
	if !r.End.After(r.Start) {
		return domain.Reservation{}, domain.ErrInvalidTimeRange
	}
	if r.Duration() > s.maxDuration {
		return domain.Reservation{}, domain.ErrDurationTooLong
	}
	if !r.Start.After(now) {
		return domain.Reservation{}, domain.ErrPastTime
	}
	if err := s.window.CheckRange(r); err != nil {
		return domain.Reservation{}, err
	}

	hash, err := domain.HashPasscode(in.Passcode, s.passcodeCost)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("hash passcode: %w", err)
	}

	created, err := s.store.InsertIfNoConflict(ctx, domain.Reservation{
		DJName:       in.DJName,
		Range:        r,
		PasscodeHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"start":          created.Range.Start,
		"end":            created.Range.End,
	}).Info("reservation created")
	s.publish(ctx, EventReservationCreated, created, now)

	return created, nil
}

// DeleteReservation removes a reservation when passcode matches the one it
// was created with. Unknown and malformed ids both yield ErrReservationNotFound.
func (s *ReservationService) DeleteReservation(ctx context.Context, id, passcode string) error {
	now := s.clock.Now()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrReservationNotFound
	}
	id = parsed.String()

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := domain.PasscodeMatches(existing.PasscodeHash, passcode)
	if err != nil {
		return fmt.Errorf("compare passcode: %w", err)
	}
	if !ok {
		return domain.ErrInvalidPasscode
	}

	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	s.logger.WithField("reservation_id", deleted.ID).Info("reservation deleted")
	s.publish(ctx, EventReservationDeleted, deleted, now)
	return nil
}

// ListReservations returns reservations ascending by start. Reservations
// reaching outside a bounded event window are left out, and the optional
// filter keeps those intersecting it.
func (s *ReservationService) ListReservations(ctx context.Context, filter *domain.TimeRange) ([]domain.Reservation, error) {
	r := s.window.Range()
	if filter != nil {
		r = intersect(r, *filter)
		if !r.Start.IsZero() && !r.End.IsZero() && !r.End.After(r.Start) {
			return []domain.Reservation{}, nil
		}
	}
	found, err := s.store.FindInRange(ctx, r)
	if err != nil {
		return nil, err
	}
	if !s.window.Bounded() {
		return found, nil
	}

	out := found[:0]
	for _, res := range found {
		if s.window.ContainsRange(res.Range) {
			out = append(out, res)
		}
	}
	return out, nil
}

// EventWindow exposes the policy the service validates against.
func (s *ReservationService) EventWindow() domain.EventWindow {
	return s.window
}

// MaxDuration is the longest reservation the service accepts.
func (s *ReservationService) MaxDuration() time.Duration {
	return s.maxDuration
}

// ReservationEvent is the broker payload for reservation.* events.
type ReservationEvent struct {
	ID         string    `json:"id"`
	DJName     string    `json:"djName"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (s *ReservationService) publish(ctx context.Context, key string, res domain.Reservation, at time.Time) {
	err := s.publisher.PublishJSON(ctx, key, ReservationEvent{
		ID:         res.ID,
		DJName:     res.DJName,
		StartTime:  res.Range.Start,
		EndTime:    res.Range.End,
		OccurredAt: at,
	})
	if err != nil {
		s.logger.WithError(err).WithField("event", key).Warn("publish reservation event")
	}
}

func intersect(a, b domain.TimeRange) domain.TimeRange {
	out := a
	if out.Start.IsZero() || (!b.Start.IsZero() && b.Start.After(out.Start)) {
		out.Start = b.Start
	}
	if out.End.IsZero() || (!b.End.IsZero() && b.End.Before(out.End)) {
		out.End = b.End
	}
	return out
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
