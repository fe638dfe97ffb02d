package logger

import (
	"io"
	"log/slog"
)

// New builds the service logger. Prod gets JSON at info level for log
// shipping; everything else gets human-readable text at debug level.
func New(env string, w io.Writer) *slog.Logger {
	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}
