// Package logging configures the JSON logger written to Lambda stdout and
// the structured events the service emits for CloudWatch Logs Insights.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/airouter/internal/models"
)

// maxErrorLength bounds error text carried in log events.
const maxErrorLength = 200

// New returns a JSON logger at the given level ("debug", "info", "warn", "error").
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TruncateError shortens err's message for logging.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	return models.Truncate(err.Error(), maxErrorLength)
}

func LLMCall(ctx context.Context, logger *slog.Logger, requestID, modelID string, inputTokens, outputTokens int, latency time.Duration, success bool) {
	logger.LogAttrs(ctx, slog.LevelInfo, "llm call",
		slog.String("event", "llm_call"),
		slog.String("request_id", requestID),
		slog.String("model_id", modelID),
		slog.Int("input_tokens", inputTokens),
		slog.Int("output_tokens", outputTokens),
		slog.Int("total_tokens", inputTokens+outputTokens),
		slog.Float64("latency_ms", float64(latency.Microseconds())/1000),
		slog.Bool("success", success),
	)
}

func Error(ctx context.Context, logger *slog.Logger, requestID, errorType string, err error) {
	logger.LogAttrs(ctx, slog.LevelError, "request error",
		slog.String("event", "error"),
		slog.String("request_id", requestID),
		slog.String("error_type", errorType),
		slog.String("error_message", TruncateError(err)),
	)
}

func CostGuardTriggered(ctx context.Context, logger *slog.Logger, requestID string, estimatedTokens, limit, goalLength int) {
	logger.LogAttrs(ctx, slog.LevelWarn, "cost guard triggered",
		slog.String("event", "cost_guard_triggered"),
		slog.String("request_id", requestID),
		slog.Int("estimated_tokens", estimatedTokens),
		slog.Int("limit", limit),
		slog.Int("goal_length", goalLength),
	)
}
