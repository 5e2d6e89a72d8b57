package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. Audit-style lines carry
// log_type=audit so log pipelines can route them separately.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
