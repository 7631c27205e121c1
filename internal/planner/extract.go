package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/airouter/internal/models"
)

var (
	ErrMalformedPlan   = errors.New("model reply is not a valid plan document")
	ErrProviderFailure = errors.New("plan generation provider failed")
)

const fence = "```"

// StripCodeFence removes a leading ``` or ```json marker and a trailing ```
// marker, as models often wrap JSON in a markdown code block.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, fence+"json") {
		text = text[len(fence+"json"):]
	} else if strings.HasPrefix(text, fence) {
		text = text[len(fence):]
	}
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

// ExtractJSON strips code fences from text and checks that the remainder is
// well-formed JSON. Clean JSON is returned unchanged.
func ExtractJSON(text string) (json.RawMessage, error) {
	stripped := StripCodeFence(text)
	var probe any
	if err := json.Unmarshal([]byte(stripped), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	return json.RawMessage(stripped), nil
}

type planDocument struct {
	EstimatedDurationWeeks *int            `json:"estimated_duration_weeks"`
	WeeklyBreakdown        []weekDocument  `json:"weekly_breakdown"`
	Resources              []resourceEntry `json:"resources"`
	TotalEstimatedHours    *float64        `json:"total_estimated_hours"`
}

type weekDocument struct {
	WeekNumber *int           `json:"week_number"`
	FocusArea  *string        `json:"focus_area"`
	Tasks      []taskDocument `json:"tasks"`
}

type taskDocument struct {
	Task           *string  `json:"task"`
	EstimatedHours *float64 `json:"estimated_hours"`
	Milestone      bool     `json:"milestone"`
}

type resourceEntry struct {
	Title          *string  `json:"title"`
	URL            *string  `json:"url"`
	ResourceType   *string  `json:"resource_type"`
	RelevanceScore *float64 `json:"relevance_score"`
}

// ParsedPlan is the model-authored part of a plan.
type ParsedPlan struct {
	EstimatedDurationWeeks int
	WeeklyBreakdown        []models.WeeklyBreakdown
	Resources              []models.Resource
	TotalEstimatedHours    float64
}

// DecodePlan extracts and validates the plan document in a model reply.
func DecodePlan(text string) (*ParsedPlan, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var pd planDocument
	if err := json.Unmarshal(raw, &pd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	return pd.validate()
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPlan, fmt.Sprintf(format, args...))
}

func (pd planDocument) validate() (*ParsedPlan, error) {
	if pd.EstimatedDurationWeeks == nil {
		return nil, malformed("missing estimated_duration_weeks")
	}
	if w := *pd.EstimatedDurationWeeks; w < 1 || w > 52 {
		return nil, malformed("estimated_duration_weeks %d out of range 1-52", w)
	}
	if pd.TotalEstimatedHours == nil {
		return nil, malformed("missing total_estimated_hours")
	}
	if pd.WeeklyBreakdown == nil {
		return nil, malformed("missing weekly_breakdown")
	}

	plan := &ParsedPlan{
		EstimatedDurationWeeks: *pd.EstimatedDurationWeeks,
		TotalEstimatedHours:    *pd.TotalEstimatedHours,
		WeeklyBreakdown:        make([]models.WeeklyBreakdown, 0, len(pd.WeeklyBreakdown)),
		Resources:              make([]models.Resource, 0, len(pd.Resources)),
	}

	for i, week := range pd.WeeklyBreakdown {
		if week.WeekNumber == nil || *week.WeekNumber < 1 {
			return nil, malformed("weekly_breakdown[%d]: invalid week_number", i)
		}
		if week.FocusArea == nil {
			return nil, malformed("weekly_breakdown[%d]: missing focus_area", i)
		}
		if len(week.Tasks) == 0 {
			return nil, malformed("weekly_breakdown[%d]: no tasks", i)
		}

		tasks := make([]models.WeeklyTask, 0, len(week.Tasks))
		for j, task := range week.Tasks {
			if task.Task == nil {
				return nil, malformed("weekly_breakdown[%d].tasks[%d]: missing task", i, j)
			}
			if task.EstimatedHours == nil || *task.EstimatedHours <= 0 {
				return nil, malformed("weekly_breakdown[%d].tasks[%d]: estimated_hours must be > 0", i, j)
			}
			tasks = append(tasks, models.WeeklyTask{
				Task:           *task.Task,
				EstimatedHours: *task.EstimatedHours,
				Milestone:      task.Milestone,
			})
		}

		plan.WeeklyBreakdown = append(plan.WeeklyBreakdown, models.WeeklyBreakdown{
			WeekNumber: *week.WeekNumber,
			FocusArea:  *week.FocusArea,
			Tasks:      tasks,
		})
	}

	for i, r := range pd.Resources {
		if r.Title == nil || r.URL == nil || r.ResourceType == nil {
			return nil, malformed("resources[%d]: title, url and resource_type are required", i)
		}
		if r.RelevanceScore != nil && (*r.RelevanceScore < 0 || *r.RelevanceScore > 1) {
			return nil, malformed("resources[%d]: relevance_score out of range 0-1", i)
		}
		plan.Resources = append(plan.Resources, models.Resource{
			Title:          *r.Title,
			URL:            *r.URL,
			ResourceType:   *r.ResourceType,
			RelevanceScore: r.RelevanceScore,
		})
	}

	return plan, nil
}
