package logger

import (
	"io"
	"log/slog"
	"os"
)

const (
	EMPTY = ""
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
	JSON  = "json"
	TEXT  = "text"
)

// Attribute keys shared by both services so saga runs can be joined across
// their logs.
const (
	KeyService       = "service"
	KeyRequestID     = "request_id"
	KeyCorrelationID = "correlation_id"
	KeyBookingID     = "booking_id"
	KeyRoomID        = "room_id"
)

type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     string
	Format    string
	Output    io.Writer
	AddSource bool
	Service   string
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == TEXT {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	l := &Logger{Logger: slog.New(handler)}
	if cfg.Service != EMPTY {
		l = l.With(KeyService, cfg.Service)
	}
	return l
}

// parseLevel accepts slog level names in any case; anything else is info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// With returns a child logger that keeps Fatal.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithSaga tags every line with the idempotency key and the correlation id
// of one saga run.
func (l *Logger) WithSaga(requestID, correlationID string) *Logger {
	return l.With(KeyRequestID, requestID, KeyCorrelationID, correlationID)
}

// Fatal logs at error level and exits with status 1.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
