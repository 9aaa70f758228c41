package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/outductor/stream-system-backend/internal/app"
	"github.com/outductor/stream-system-backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// ReservationLister is the minimal interface needed to list reservations.
type ReservationLister interface {
	ListReservations(ctx context.Context, filter *domain.TimeRange) ([]domain.Reservation, error)
}

// ReservationCreator is the minimal interface needed to create a reservation.
type ReservationCreator interface {
	CreateReservation(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
}

// ReservationDeleter is the minimal interface needed to delete a reservation.
type ReservationDeleter interface {
	DeleteReservation(ctx context.Context, id, passcode string) error
}

// HandleListReservations lists reservations, optionally for one calendar day
// (?date=YYYY-MM-DD) in loc.
func HandleListReservations(svc ReservationLister, loc *time.Location, logger logrus.FieldLogger) http.HandlerFunc {
	if loc == nil {
		loc = time.UTC
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *domain.TimeRange
		if date := r.URL.Query().Get("date"); date != "" {
			day, err := time.ParseInLocation(dateLayout, date, loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequest, "date must be YYYY-MM-DD")
				return
			}
			tr := domain.NewTimeRange(day, day.AddDate(0, 0, 1))
			filter = &tr
		}

		reservations, err := svc.ListReservations(r.Context(), filter)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		resp := make([]reservationResponse, 0, len(reservations))
		for _, res := range reservations {
			resp = append(resp, toReservationResponse(res))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCreateReservation returns an HTTP handler for creating reservations.
func HandleCreateReservation(svc ReservationCreator, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
			return
		}
		if req.StartTime == nil || req.EndTime == nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "startTime and endTime are required")
			return
		}

		res, err := svc.CreateReservation(r.Context(), app.CreateReservationInput{
			DJName:    req.DJName,
			StartTime: *req.StartTime,
			EndTime:   *req.EndTime,
			Passcode:  req.Passcode,
		})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

// HandleDeleteReservation deletes the reservation named by the reservationId
// URL parameter. A wrong passcode is an authorization failure here.
func HandleDeleteReservation(svc ReservationDeleter, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
			return
		}

		err := svc.DeleteReservation(r.Context(), chi.URLParam(r, "reservationId"), req.Passcode)
		if errors.Is(err, domain.ErrInvalidPasscode) {
			writeError(w, http.StatusUnauthorized, codeInvalidPasscode, err.Error())
			return
		}
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type createReservationRequest struct {
	DJName    string     `json:"djName"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Passcode  string     `json:"passcode"`
}

type deleteReservationRequest struct {
	Passcode string `json:"passcode"`
}

type reservationResponse struct {
	ID        string    `json:"id"`
	DJName    string    `json:"djName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:        res.ID,
		DJName:    res.DJName,
		StartTime: res.Range.Start.UTC(),
		EndTime:   res.Range.End.UTC(),
		CreatedAt: res.CreatedAt.UTC(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
