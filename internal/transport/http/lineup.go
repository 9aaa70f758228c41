package http

import (
	"context"
	"net/http"

	"github.com/outductor/stream-system-backend/internal/app"
	"github.com/sirupsen/logrus"
)

type LineupReader interface {
	Lineup(ctx context.Context) (app.Lineup, error)
}

// HandleLineup reports the DJ currently on the booth and the next one up.
func HandleLineup(svc LineupReader, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineup, err := svc.Lineup(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		var resp lineupResponse
		if lineup.Current != nil {
			cur := toReservationResponse(*lineup.Current)
			resp.Current = &cur
		}
		if lineup.Next != nil {
			next := toReservationResponse(*lineup.Next)
			resp.Next = &next
		}
		resp.IsLive = resp.Current != nil
		writeJSON(w, http.StatusOK, resp)
	}
}

type lineupResponse struct {
	IsLive  bool                 `json:"isLive"`
	Current *reservationResponse `json:"current"`
	Next    *reservationResponse `json:"next"`
}
