package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/outductor/stream-system-backend/internal/app"
	"github.com/outductor/stream-system-backend/internal/clock"
	"github.com/outductor/stream-system-backend/internal/config"
	"github.com/outductor/stream-system-backend/internal/mq"
	"github.com/outductor/stream-system-backend/internal/storage/memory"
	"github.com/outductor/stream-system-backend/internal/storage/postgres"
	transporthttp "github.com/outductor/stream-system-backend/internal/transport/http"
	"github.com/outductor/stream-system-backend/migrations"
	"github.com/sirupsen/logrus"
)

const startupTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := cfg.NewLogger()

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, closeStore := openStore(startupCtx, cfg, logger)
	defer closeStore()

	clk := clock.NewSystem()
	window := cfg.EventWindow()
	opts := []app.ReservationServiceOption{
		app.WithMaxDuration(cfg.MaxReservationDuration),
		app.WithPasscodeCost(cfg.PasscodeCost),
		app.WithLogger(logger),
	}
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.WithError(err).Fatal("connect to broker")
		}
		defer pub.Close()
		opts = append(opts, app.WithPublisher(pub))
		logger.WithField("exchange", cfg.AMQPExchange).Info("publishing reservation events")
	}

	reservations := app.NewReservationService(store, clk, window, opts...)
	availability := app.NewAvailabilityService(store, clk, window)

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Reservations: reservations,
		Availability: availability,
		Store:        store,
		Location:     cfg.Location,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"store":       cfg.Store,
		"event_start": window.Start,
		"event_end":   window.End,
		"timezone":    cfg.Location.String(),
	}).Info("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server shutdown error")
	}
	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.App, logger *logrus.Logger) (app.ReservationStore, func()) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory reservation store, data is lost on restart")
		return memory.NewReservationStore(), func() {}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.WithError(err).Fatal("db ping")
	}
	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		pool.Close()
		logger.WithError(err).Fatal("apply migrations")
	}
	for _, name := range applied {
		logger.WithField("migration", name).Info("applied migration")
	}
	return postgres.NewReservationRepository(pool), pool.Close
}
