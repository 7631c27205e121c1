package usagelog

import (
	"context"
	"log/slog"

	"github.com/airouter/internal/models"
)

const (
	consoleGoalLength  = 100
	consoleErrorLength = 200
)

// ConsoleWriter logs usage entries instead of persisting them. Used in mock mode.
type ConsoleWriter struct {
	logger *slog.Logger
}

func NewConsoleWriter(logger *slog.Logger) *ConsoleWriter {
	return &ConsoleWriter{logger: logger}
}

func (w *ConsoleWriter) LogRequest(ctx context.Context, entry models.UsageLogEntry) error {
	goal := entry.Goal
	if len(goal) > consoleGoalLength {
		goal = models.Truncate(goal, consoleGoalLength) + "..."
	}

	attrs := []slog.Attr{
		slog.String("request_id", entry.RequestID),
		slog.String("timestamp", entry.Timestamp),
		slog.String("goal", goal),
		slog.String("category", string(entry.Category)),
		slog.Int("tokens_used", entry.TokensUsed),
		slog.Float64("latency_ms", entry.LatencyMs),
		slog.Bool("success", entry.Success),
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", models.Truncate(entry.Error, consoleErrorLength)))
	}

	w.logger.LogAttrs(ctx, slog.LevelInfo, "[MOCK] request logged", attrs...)
	return nil
}
