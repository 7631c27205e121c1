package models

import (
	"time"
)

type Category string

const (
	CategoryCertification Category = "certification"
	CategorySkillLearning Category = "skill-learning"
	CategoryFitness       Category = "fitness"
	CategoryCreative      Category = "creative"
	CategoryProductivity  Category = "productivity"
	CategoryOther         Category = "other"

	// CategoryUnknown is only used for logging when a request fails before
	// classification completes.
	CategoryUnknown Category = "unknown"
)

// Categories lists the labels a goal can be classified into.
var Categories = []Category{
	CategoryCertification,
	CategorySkillLearning,
	CategoryFitness,
	CategoryCreative,
	CategoryProductivity,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type GoalRequest struct {
	Goal    string `json:"goal"`
	Context string `json:"context,omitempty"`
}

type WeeklyTask struct {
	Task           string  `json:"task"`
	EstimatedHours float64 `json:"estimated_hours"`
	Milestone      bool    `json:"milestone"`
}

type WeeklyBreakdown struct {
	WeekNumber int          `json:"week_number"`
	FocusArea  string       `json:"focus_area"`
	Tasks      []WeeklyTask `json:"tasks"`
}

type Resource struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"` // URL or "search: <term>"
	ResourceType   string   `json:"resource_type"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type PlanMetadata struct {
	TokensUsed              TokenUsage `json:"tokens_used"`
	Model                   string     `json:"model"`
	EstimatedCostUSD        float64    `json:"estimated_cost_usd,omitempty"`
	MockMode                bool       `json:"mock_mode,omitempty"`
	ClassificationLatencyMs float64    `json:"classification_latency_ms,omitempty"`
}

// Plan is the structured response returned for a goal.
type Plan struct {
	RequestID              string            `json:"request_id"`
	Goal                   string            `json:"goal"`
	Category               Category          `json:"category"`
	EstimatedDurationWeeks int               `json:"estimated_duration_weeks"`
	WeeklyBreakdown        []WeeklyBreakdown `json:"weekly_breakdown"`
	Resources              []Resource        `json:"resources"`
	TotalEstimatedHours    float64           `json:"total_estimated_hours"`
	CreatedAt              time.Time         `json:"created_at"`
	Metadata               PlanMetadata      `json:"metadata"`
}
