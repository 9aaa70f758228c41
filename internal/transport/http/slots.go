package http

import (
	"context"
	"net/http"
	"time"

	"github.com/outductor/stream-system-backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// SlotFinder is the minimal interface needed to answer availability queries.
type SlotFinder interface {
	GetAvailableSlots(ctx context.Context, start time.Time, end *time.Time) ([]domain.TimeSlot, error)
}

// HandleAvailableSlots serves GET ?startTime=&endTime= with RFC 3339 instants.
// endTime is optional.
func HandleAvailableSlots(svc SlotFinder, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		raw := q.Get("startTime")
		if raw == "" {
			writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "startTime parameter is required")
			return
		}
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "startTime must be RFC 3339")
			return
		}

		var end *time.Time
		if raw := q.Get("endTime"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "endTime must be RFC 3339")
				return
			}
			end = &t
		}

		slots, err := svc.GetAvailableSlots(r.Context(), start, end)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		resp := make([]slotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, slotResponse{
				StartTime: s.Range.Start,
				EndTime:   s.Range.End,
				Available: s.Available,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type slotResponse struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}
