package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/outductor/stream-system-backend/internal/app"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Reservations *app.ReservationService
	Availability *app.AvailabilityService
	Store        Pinger
	Location     *time.Location
	CORSOrigins  []string
	Logger       logrus.FieldLogger
}

// NewRouter wires every route under /api/v1 plus /health.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	if origins := allowedOrigins(cfg.CORSOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(cfg.Store))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/available-slots", HandleAvailableSlots(cfg.Availability, logger))
		r.Get("/lineup", HandleLineup(cfg.Availability, logger))
		r.Get("/event-config", HandleEventConfig(EventConfig{
			Window:      cfg.Reservations.EventWindow(),
			Location:    cfg.Location,
			MaxDuration: cfg.Reservations.MaxDuration(),
		}))
		r.Get("/reservations", HandleListReservations(cfg.Reservations, cfg.Location, logger))
		r.Post("/reservations", HandleCreateReservation(cfg.Reservations, logger))
		r.Delete("/reservations/{reservationId}", HandleDeleteReservation(cfg.Reservations, logger))
	})

	return r
}

func allowedOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
