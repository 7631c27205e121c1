package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")
	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")
	ctx := context.Background()

	LLMCall(ctx, logger, "req-1", "mock-model", 500, 1200, 1500*time.Millisecond, true)
	CostGuardTriggered(ctx, logger, "req-1", 2100, 2000, 6000)
	Error(ctx, logger, "req-1", "GenerationParseFailure", errors.New(strings.Repeat("x", 500)))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "llm_call", lines[0]["event"])
	assert.Equal(t, float64(1700), lines[0]["total_tokens"])
	assert.Equal(t, float64(1500), lines[0]["latency_ms"])

	assert.Equal(t, "cost_guard_triggered", lines[1]["event"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, float64(2000), lines[1]["limit"])

	assert.Equal(t, "error", lines[2]["event"])
	assert.Len(t, lines[2]["error_message"], 200)
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "", TruncateError(nil))
	assert.Equal(t, "short", TruncateError(errors.New("short")))

	// 199 ASCII bytes followed by a two-byte rune straddling the limit.
	msg := TruncateError(errors.New(strings.Repeat("x", 199) + "é and more"))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("x", 199), msg)
	assert.LessOrEqual(t, len(TruncateError(errors.New(strings.Repeat("ü", 300)))), 200)
	assert.True(t, utf8.ValidString(TruncateError(errors.New(strings.Repeat("ü", 300)))))
}
