package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// New returns a configured slog.Logger for the given format and level.
func New(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// NewGormLogger builds gorm's SQL logger writing through l.
func NewGormLogger(l *slog.Logger, debug bool) logger.Interface {
	lvl := logger.Warn
	if debug {
		lvl = logger.Info
	}
	return logger.New(
		log.New(&slogWriter{l: l}, "", 0),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Discard drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type slogWriter struct {
	l *slog.Logger
}

func (w *slogWriter) Write(p []byte) (int, error) {
	w.l.Info(strings.TrimSpace(string(p)), "component", "gorm")
	return len(p), nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
