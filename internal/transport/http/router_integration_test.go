package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/outductor/stream-system-backend/internal/clock"
	"github.com/outductor/stream-system-backend/internal/storage/postgres"
	"github.com/outductor/stream-system-backend/internal/testutil"
)

func TestRouter_PostgresIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	now := time.Date(2025, 8, 28, 12, 0, 0, 0, time.UTC)
	h := newTestRouter(t, postgres.NewReservationRepository(pool), clock.NewFixed(now))

	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := do(t, h, http.MethodPost, "/api/v1/reservations",
				`{"djName":"Kay","startTime":"2025-08-29T22:00:00Z","endTime":"2025-08-29T23:00:00Z","passcode":"1234"}`)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	var created, conflicts int
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 || conflicts != attempts-1 {
		t.Fatalf("expected 1 created and %d conflicts, got %d and %d", attempts-1, created, conflicts)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/reservations", "")
	var listed []reservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one stored reservation, got %+v", listed)
	}

	var hash string
	if err := pool.QueryRow(ctx, `SELECT passcode_hash FROM reservations WHERE id = $1`, listed[0].ID).Scan(&hash); err != nil {
		t.Fatalf("query hash: %v", err)
	}
	if hash == "1234" {
		t.Fatalf("expected passcode stored hashed")
	}

	if rec := do(t, h, http.MethodDelete, "/api/v1/reservations/not-a-uuid", `{"passcode":"1234"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/reservations/"+listed[0].ID, `{"passcode":"1234"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
