package http

import (
	"net/http"
	"time"

	"github.com/outductor/stream-system-backend/internal/domain"
)

// EventConfig is what clients need to render the booking grid.
type EventConfig struct {
	Window      domain.EventWindow
	Location    *time.Location
	MaxDuration time.Duration
}

func HandleEventConfig(cfg EventConfig) http.HandlerFunc {
	resp := eventConfigResponse{
		Timezone:               "UTC",
		SlotMinutes:            int(domain.Granularity / time.Minute),
		MaxReservationMinutes:  int(cfg.MaxDuration / time.Minute),
		DefaultQueryRangeHours: int(cfg.Window.DefaultHorizon / time.Hour),
		MaxQueryRangeHours:     int(cfg.Window.MaxQueryRange / time.Hour),
	}
	if cfg.Location != nil {
		resp.Timezone = cfg.Location.String()
	}
	if cfg.Window.HasStart() {
		start := cfg.Window.Start
		resp.EventStartTime = &start
	}
	if cfg.Window.HasEnd() {
		end := cfg.Window.End
		resp.EventEndTime = &end
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

type eventConfigResponse struct {
	EventStartTime         *time.Time `json:"eventStartTime,omitempty"`
	EventEndTime           *time.Time `json:"eventEndTime,omitempty"`
	Timezone               string     `json:"timezone"`
	SlotMinutes            int        `json:"slotMinutes"`
	MaxReservationMinutes  int        `json:"maxReservationMinutes"`
	DefaultQueryRangeHours int        `json:"defaultQueryRangeHours"`
	MaxQueryRangeHours     int        `json:"maxQueryRangeHours"`
}
