// Package log builds the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
)

// NewSlogLogger builds the logger described by cfg, writing to stdout, and
// installs it as the slog default.
func NewSlogLogger(cfg config.Log) *slog.Logger {
	logger := newSlogLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	return logger
}

func newSlogLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch cfg.Format {
	case config.LogFormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:       cfg.Level,
			AddSource:   cfg.AddSource,
			TimeFormat:  time.DateTime,
			ReplaceAttr: highlightErrors,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})
	}

	logger := slog.New(contextHandler{next: handler})
	if cfg.App != "" {
		logger = logger.With(slog.String("app", cfg.App))
	}
	return logger
}

// highlightErrors renders error values in red.
func highlightErrors(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	if _, ok := a.Value.Any().(error); ok {
		return tint.Attr(9, a)
	}
	return a
}
