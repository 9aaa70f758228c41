package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/outductor/stream-system-backend/internal/domain"
)

// reservationLockID serializes every insert and delete on the booth timeline.
const reservationLockID int64 = 720150001

const reservationColumns = `id, dj_name, start_time, end_time, passcode_hash, created_at`

type ReservationRepository struct {
	pool  *pgxpool.Pool
	newID func() string
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool, newID: uuid.NewString}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) FindOverlapping(ctx context.Context, tr domain.TimeRange) ([]domain.Reservation, error) {
	const query = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE start_time < $2 AND end_time > $1
ORDER BY start_time ASC`

	return r.list(ctx, "find overlapping reservations", query, tr.Start, tr.End)
}

func (r *ReservationRepository) FindInRange(ctx context.Context, tr domain.TimeRange) ([]domain.Reservation, error) {
	const query = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE ($1::timestamptz IS NULL OR end_time > $1)
  AND ($2::timestamptz IS NULL OR start_time < $2)
ORDER BY start_time ASC`

	return r.list(ctx, "find reservations in range", query, nullableTime(tr.Start), nullableTime(tr.End))
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.queryRow(ctx, query, id))
	if err != nil {
		return domain.Reservation{}, notFoundOr("get reservation", err)
	}
	return res, nil
}

// InsertIfNoConflict takes the timeline lock, checks for overlap and inserts
// in one transaction. The no_overlap constraint rejects anything that slips by.
func (r *ReservationRepository) InsertIfNoConflict(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const overlapQuery = `
SELECT EXISTS (
	SELECT 1 FROM reservations WHERE start_time < $2 AND end_time > $1
)`
	const stmt = `
INSERT INTO reservations (id, dj_name, start_time, end_time, passcode_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + reservationColumns

	res.ID = r.newID()
	var created domain.Reservation
	err := r.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.lockTimeline(txCtx); err != nil {
			return err
		}

		var taken bool
		if err := r.queryRow(txCtx, overlapQuery, res.Range.Start, res.Range.End).Scan(&taken); err != nil {
			return storageError("check overlap", err)
		}
		if taken {
			return domain.ErrTimeConflict
		}

		row := r.queryRow(txCtx, stmt,
			res.ID,
			res.DJName,
			res.Range.Start,
			res.Range.End,
			res.PasscodeHash,
			res.CreatedAt,
		)
		var err error
		created, err = scanReservation(row)
		if err != nil {
			if isExclusionViolation(err) {
				return domain.ErrTimeConflict
			}
			return storageError("insert reservation", err)
		}
		return nil
	})
	if err != nil {
		return domain.Reservation{}, passThrough("insert reservation", err)
	}
	return created, nil
}

func (r *ReservationRepository) DeleteByID(ctx context.Context, id string) (domain.Reservation, error) {
	const stmt = `DELETE FROM reservations WHERE id = $1 RETURNING ` + reservationColumns

	var deleted domain.Reservation
	err := r.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.lockTimeline(txCtx); err != nil {
			return err
		}
		var err error
		deleted, err = scanReservation(r.queryRow(txCtx, stmt, id))
		if err != nil {
			return notFoundOr("delete reservation", err)
		}
		return nil
	})
	if err != nil {
		return domain.Reservation{}, passThrough("delete reservation", err)
	}
	return deleted, nil
}

func (r *ReservationRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (r *ReservationRepository) lockTimeline(ctx context.Context) error {
	if _, err := r.exec(ctx, `SELECT pg_advisory_xact_lock($1)`, reservationLockID); err != nil {
		return storageError("lock reservations", err)
	}
	return nil
}

func (r *ReservationRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	out := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, storageError("scan reservation", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, storageError(op, rows.Err())
	}
	return out, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res        domain.Reservation
		start, end time.Time
	)
	if err := row.Scan(&res.ID, &res.DJName, &start, &end, &res.PasscodeHash, &res.CreatedAt); err != nil {
		return domain.Reservation{}, err
	}
	res.Range = domain.NewTimeRange(start, end)
	res.CreatedAt = res.CreatedAt.UTC()
	return res, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return domain.ErrReservationNotFound
	}
	return storageError(op, err)
}

func storageError(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}

// passThrough keeps domain and storage errors as they are and wraps failures
// from the transaction itself, such as begin or commit.
func passThrough(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrTimeConflict),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrStorage):
		return err
	case isExclusionViolation(err):
		return domain.ErrTimeConflict
	}
	return storageError(op, err)
}
