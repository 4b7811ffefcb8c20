package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text output on stdout keeps
// local development readable; ship-to-JSON stays a one-line change here.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
