package logger

import (
	"log/slog"
	"os"

	"github.com/jwebster45206/yoga-journey/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithJourney scopes a logger to one journey and, when known, one request.
func WithJourney(logger *slog.Logger, journeyID, requestID string) *slog.Logger {
	l := logger.With("journey_id", journeyID)
	if requestID != "" {
		l = l.With("request_id", requestID)
	}
	return l
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
