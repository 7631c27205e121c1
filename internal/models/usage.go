package models

import (
	"math"
	"time"
)

const (
	maxLoggedGoalLength  = 500
	maxLoggedErrorLength = 1000
)

// UsageLogEntry is the per-request record written to the usage table.
// It is written once and never updated.
type UsageLogEntry struct {
	RequestID  string   `dynamodbav:"request_id" json:"request_id"`
	Timestamp  string   `dynamodbav:"timestamp" json:"timestamp"`
	Goal       string   `dynamodbav:"goal" json:"goal"`
	GoalLength int      `dynamodbav:"goal_length" json:"goal_length"`
	Category   Category `dynamodbav:"category" json:"category"`
	ModelID    string   `dynamodbav:"model_id,omitempty" json:"model_id,omitempty"`
	TokensUsed int      `dynamodbav:"tokens_used" json:"tokens_used"`
	LatencyMs  float64  `dynamodbav:"latency_ms" json:"latency_ms"`
	Success    bool     `dynamodbav:"success" json:"success"`
	Error      string   `dynamodbav:"error,omitempty" json:"error,omitempty"`
	Date       string   `dynamodbav:"date" json:"date"` // daily aggregation key
	Hour       string   `dynamodbav:"hour" json:"hour"` // hourly aggregation key
}

// NewUsageLogEntry builds an entry stamped at now (UTC). The goal and error
// are truncated so a single item stays well under the DynamoDB size limit.
func NewUsageLogEntry(requestID, goal string, category Category, modelID string, tokensUsed int, latency time.Duration, errMsg string, now time.Time) UsageLogEntry {
	now = now.UTC()
	return UsageLogEntry{
		RequestID:  requestID,
		Timestamp:  now.Format(time.RFC3339Nano),
		Goal:       Truncate(goal, maxLoggedGoalLength),
		GoalLength: len(goal),
		Category:   category,
		ModelID:    modelID,
		TokensUsed: tokensUsed,
		LatencyMs:  math.Round(float64(latency.Microseconds())/10) / 100,
		Success:    errMsg == "",
		Error:      Truncate(errMsg, maxLoggedErrorLength),
		Date:       now.Format("2006-01-02"),
		Hour:       now.Format("2006-01-02-15"),
	}
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
