package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithRun returns a logger with generation-run context fields attached.
// Use this for all logging within one pipeline invocation.
func WithRun(runID string) *slog.Logger {
	return slog.With("run_id", runID)
}

// WithIdea returns a logger scoped to a specific idea within a run.
func WithIdea(logger *slog.Logger, ideaID string) *slog.Logger {
	return logger.With("idea_id", ideaID)
}
