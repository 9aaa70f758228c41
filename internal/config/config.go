package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/outductor/stream-system-backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	eventTimeLayout = "2006-01-02 15:04:05"
	eventDateLayout = "2006-01-02"

	dotenvSearchDepth = 6
)

type App struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	Store           string        `envconfig:"RESERVATION_STORE" default:"postgres"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	EventTimezone  string `envconfig:"EVENT_TIMEZONE" default:"Asia/Tokyo"`
	EventStartTime string `envconfig:"EVENT_START_TIME"`
	EventEndTime   string `envconfig:"EVENT_END_TIME"`

	MaxReservationDuration time.Duration `envconfig:"MAX_RESERVATION_DURATION" default:"1h"`
	QueryHorizon           time.Duration `envconfig:"QUERY_HORIZON" default:"72h"`
	MaxQueryRange          time.Duration `envconfig:"MAX_QUERY_RANGE" default:"72h"`
	PasscodeCost           int           `envconfig:"PASSCODE_COST"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"reservation.events"`

	// Resolved by Load.
	Location   *time.Location `ignored:"true"`
	EventStart time.Time      `ignored:"true"`
	EventEnd   time.Time      `ignored:"true"`
}

// Load reads the nearest .env file, if any, then the process environment.
// Variables already set in the environment take precedence over .env.
func Load() (App, error) {
	if path := findDotenv(); path != "" {
		if err := godotenv.Load(path); err != nil {
			return App{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return FromEnv()
}

// FromEnv parses and validates the process environment only.
func FromEnv() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, err
	}
	if err := c.resolve(); err != nil {
		return App{}, err
	}
	return c, nil
}

func (c *App) resolve() error {
	loc, err := time.LoadLocation(c.EventTimezone)
	if err != nil {
		return fmt.Errorf("invalid EVENT_TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.EventStartTime != "" {
		c.EventStart, err = parseEventTime(c.EventStartTime, loc, false)
		if err != nil {
			return fmt.Errorf("invalid EVENT_START_TIME: %w", err)
		}
	}
	if c.EventEndTime != "" {
		c.EventEnd, err = parseEventTime(c.EventEndTime, loc, true)
		if err != nil {
			return fmt.Errorf("invalid EVENT_END_TIME: %w", err)
		}
	}
	if !c.EventStart.IsZero() && !c.EventEnd.IsZero() && !c.EventStart.Before(c.EventEnd) {
		return errors.New("EVENT_START_TIME must be before EVENT_END_TIME")
	}

	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when RESERVATION_STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown RESERVATION_STORE %q", c.Store)
	}

	for name, d := range map[string]time.Duration{
		"MAX_RESERVATION_DURATION": c.MaxReservationDuration,
		"QUERY_HORIZON":            c.QueryHorizon,
		"MAX_QUERY_RANGE":          c.MaxQueryRange,
		"SHUTDOWN_TIMEOUT":         c.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.QueryHorizon > c.MaxQueryRange {
		return errors.New("QUERY_HORIZON must not exceed MAX_QUERY_RANGE")
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// EventWindow builds the booking policy from the configured bounds and limits.
func (c App) EventWindow() domain.EventWindow {
	w := domain.NewEventWindow(c.EventStart, c.EventEnd)
	w.DefaultHorizon = c.QueryHorizon
	w.MaxQueryRange = c.MaxQueryRange
	return w
}

func (c App) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// NewLogger returns a logger configured from LOG_LEVEL and LOG_FORMAT.
func (c App) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := c.Level(); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// parseEventTime accepts "YYYY-MM-DD HH:MM:SS" or a bare date. A bare date
// means the start of that day, or its last second when endOfDay is set.
func parseEventTime(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.ParseInLocation(eventTimeLayout, s, loc); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(eventDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("use YYYY-MM-DD HH:MM:SS, got %q", s)
	}
	if endOfDay {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), nil
	}
	return d, nil
}

func findDotenv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < dotenvSearchDepth; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
