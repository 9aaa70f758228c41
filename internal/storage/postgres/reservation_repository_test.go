package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/outductor/stream-system-backend/internal/domain"
	"github.com/outductor/stream-system-backend/internal/testutil"
)

var base = time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)

func slot(startMin, endMin int) domain.TimeRange {
	return domain.NewTimeRange(
		base.Add(time.Duration(startMin)*time.Minute),
		base.Add(time.Duration(endMin)*time.Minute),
	)
}

func newReservation(name string, r domain.TimeRange) domain.Reservation {
	return domain.Reservation{
		DJName:       name,
		Range:        r,
		PasscodeHash: "$2a$04$hash",
		CreatedAt:    base.Add(-24 * time.Hour),
	}
}

func TestReservationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("InsertIfNoConflict stores and returns the row", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		created, err := repo.InsertIfNoConflict(ctx, newReservation("Kay", slot(0, 30)))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.ID == "" || created.DJName != "Kay" || !created.Range.Start.Equal(slot(0, 30).Start) {
			t.Fatalf("unexpected reservation: %+v", created)
		}

		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != created.ID || got.PasscodeHash != created.PasscodeHash || !got.Range.End.Equal(slot(0, 30).End) {
			t.Fatalf("unexpected reservation: %+v", got)
		}
		if got.Range.Start.Location() != time.UTC {
			t.Fatalf("expected UTC times, got %v", got.Range.Start.Location())
		}
	})

	t.Run("InsertIfNoConflict rejects overlap and allows touching", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if _, err := repo.InsertIfNoConflict(ctx, newReservation("a", slot(0, 30))); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := repo.InsertIfNoConflict(ctx, newReservation("b", slot(15, 45))); err != domain.ErrTimeConflict {
			t.Fatalf("expected ErrTimeConflict, got %v", err)
		}
		if _, err := repo.InsertIfNoConflict(ctx, newReservation("c", slot(30, 60))); err != nil {
			t.Fatalf("expected touching reservation to succeed, got %v", err)
		}
	})

	t.Run("exclusion constraint backs the lock", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		testutil.InsertReservation(t, ctx, pool, newReservation("a", slot(0, 30)))
		_, err := pool.Exec(ctx, `
INSERT INTO reservations (id, dj_name, start_time, end_time, passcode_hash)
VALUES (gen_random_uuid(), 'b', $1, $2, 'x')`, slot(15, 45).Start, slot(15, 45).End)
		if !isExclusionViolation(err) {
			t.Fatalf("expected exclusion violation, got %v", err)
		}
	})

	t.Run("FindOverlapping and FindInRange", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		testutil.InsertReservation(t, ctx, pool, newReservation("c", slot(120, 180)))
		testutil.InsertReservation(t, ctx, pool, newReservation("a", slot(0, 30)))
		testutil.InsertReservation(t, ctx, pool, newReservation("b", slot(30, 60)))

		got, err := repo.FindOverlapping(ctx, slot(30, 121))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 || got[0].DJName != "b" || got[1].DJName != "c" {
			t.Fatalf("expected b and c, got %+v", got)
		}

		all, err := repo.FindInRange(ctx, domain.TimeRange{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(all) != 3 || all[0].DJName != "a" || all[2].DJName != "c" {
			t.Fatalf("expected ascending a, b, c, got %+v", all)
		}

		tail, err := repo.FindInRange(ctx, domain.TimeRange{Start: slot(45, 45).Start})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tail) != 2 {
			t.Fatalf("expected b and c with open end, got %+v", tail)
		}

		head, err := repo.FindInRange(ctx, domain.TimeRange{End: slot(30, 30).Start})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(head) != 1 || head[0].DJName != "a" {
			t.Fatalf("expected only a with open start, got %+v", head)
		}
	})

	t.Run("DeleteByID removes once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		created, err := repo.InsertIfNoConflict(ctx, newReservation("a", slot(0, 30)))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		deleted, err := repo.DeleteByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deleted.ID != created.ID {
			t.Fatalf("expected deleted row returned, got %+v", deleted)
		}
		if _, err := repo.DeleteByID(ctx, created.ID); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
		if _, err := repo.GetByID(ctx, created.ID); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
		if _, err := repo.GetByID(ctx, "not-a-uuid"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound for malformed id, got %v", err)
		}
	})

	t.Run("concurrent inserts for one slot", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		const attempts = 12
		errs := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// Alternating ranges all share 10:15-10:30.
				r := slot(15*(i%2), 30+15*(i%2))
				_, err := repo.InsertIfNoConflict(ctx, newReservation("dj", r))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		var ok int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrTimeConflict):
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 {
			t.Fatalf("expected exactly one insert to win, got %d", ok)
		}
	})

	t.Run("WithTx rolls back joined inserts", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		abort := errors.New("abort")
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.InsertIfNoConflict(txCtx, newReservation("a", slot(0, 30))); err != nil {
				return err
			}
			if _, err := repo.InsertIfNoConflict(txCtx, newReservation("b", slot(30, 60))); err != nil {
				return err
			}
			inTx, err := repo.FindInRange(txCtx, domain.TimeRange{})
			if err != nil {
				return err
			}
			if len(inTx) != 2 {
				t.Errorf("expected both rows inside the transaction, got %d", len(inTx))
			}
			return abort
		})
		if err != abort {
			t.Fatalf("expected abort error, got %v", err)
		}

		all, err := repo.FindInRange(ctx, domain.TimeRange{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(all) != 0 {
			t.Fatalf("expected rollback to drop both rows, got %+v", all)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
