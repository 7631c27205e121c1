package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlan = `{
  "estimated_duration_weeks": 6,
  "weekly_breakdown": [
    {
      "week_number": 1,
      "focus_area": "Scales and modes",
      "tasks": [
        {"task": "Practice the dorian mode in all keys", "estimated_hours": 4, "milestone": false},
        {"task": "Record a 12-bar blues solo", "estimated_hours": 2.5, "milestone": true}
      ]
    }
  ],
  "resources": [
    {"title": "The Jazz Piano Book", "url": "search: Mark Levine jazz piano book", "resource_type": "book", "relevance_score": 0.9},
    {"title": "Open Studio", "url": "https://openstudiojazz.com", "resource_type": "course"}
  ],
  "total_estimated_hours": 39
}`

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", `{"a":1}`, `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json {\"a\":1} ```  \n", `{"a":1}`},
		{"leading fence only", "```json\n{\"a\":1}", `{"a":1}`},
		{"trailing fence only", "{\"a\":1}\n```", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestExtractJSON_Idempotent(t *testing.T) {
	once, err := ExtractJSON(validPlan)
	require.NoError(t, err)

	twice, err := ExtractJSON(string(once))
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))

	fenced, err := ExtractJSON("```json\n" + validPlan + "\n```")
	require.NoError(t, err)
	assert.JSONEq(t, validPlan, string(fenced))
}

func TestExtractJSON_Malformed(t *testing.T) {
	for _, text := range []string{
		"```json\n{\"estimated_duration_weeks\": 4,\n```",
		"Here is your plan: {}",
		"",
		"```\n```",
	} {
		_, err := ExtractJSON(text)
		assert.ErrorIs(t, err, ErrMalformedPlan, text)
	}
}

func TestDecodePlan(t *testing.T) {
	plan, err := DecodePlan("```json\n" + validPlan + "\n```")
	require.NoError(t, err)

	assert.Equal(t, 6, plan.EstimatedDurationWeeks)
	assert.Equal(t, 39.0, plan.TotalEstimatedHours)
	require.Len(t, plan.WeeklyBreakdown, 1)
	assert.Equal(t, "Scales and modes", plan.WeeklyBreakdown[0].FocusArea)
	require.Len(t, plan.WeeklyBreakdown[0].Tasks, 2)
	assert.True(t, plan.WeeklyBreakdown[0].Tasks[1].Milestone)
	assert.Equal(t, 2.5, plan.WeeklyBreakdown[0].Tasks[1].EstimatedHours)

	require.Len(t, plan.Resources, 2)
	require.NotNil(t, plan.Resources[0].RelevanceScore)
	assert.Equal(t, 0.9, *plan.Resources[0].RelevanceScore)
	assert.Nil(t, plan.Resources[1].RelevanceScore)
}

func TestDecodePlan_MissingResourcesIsAllowed(t *testing.T) {
	plan, err := DecodePlan(`{"estimated_duration_weeks": 1, "weekly_breakdown": [{"week_number": 1, "focus_area": "x", "tasks": [{"task": "t", "estimated_hours": 1}]}], "total_estimated_hours": 1}`)
	require.NoError(t, err)
	assert.Empty(t, plan.Resources)
	assert.NotNil(t, plan.Resources)
}

func TestDecodePlan_InvalidDocuments(t *testing.T) {
	week := `{"week_number": 1, "focus_area": "x", "tasks": [{"task": "t", "estimated_hours": 1}]}`

	tests := map[string]string{
		"array":              `[1, 2]`,
		"missing duration":   `{"weekly_breakdown": [` + week + `], "total_estimated_hours": 1}`,
		"duration too large": `{"estimated_duration_weeks": 53, "weekly_breakdown": [` + week + `], "total_estimated_hours": 1}`,
		"duration zero":      `{"estimated_duration_weeks": 0, "weekly_breakdown": [` + week + `], "total_estimated_hours": 1}`,
		"missing hours":      `{"estimated_duration_weeks": 1, "weekly_breakdown": [` + week + `]}`,
		"missing breakdown":  `{"estimated_duration_weeks": 1, "total_estimated_hours": 1}`,
		"week zero":          `{"estimated_duration_weeks": 1, "weekly_breakdown": [{"week_number": 0, "focus_area": "x", "tasks": [{"task": "t", "estimated_hours": 1}]}], "total_estimated_hours": 1}`,
		"missing focus":      `{"estimated_duration_weeks": 1, "weekly_breakdown": [{"week_number": 1, "tasks": [{"task": "t", "estimated_hours": 1}]}], "total_estimated_hours": 1}`,
		"no tasks":           `{"estimated_duration_weeks": 1, "weekly_breakdown": [{"week_number": 1, "focus_area": "x", "tasks": []}], "total_estimated_hours": 1}`,
		"task without text":  `{"estimated_duration_weeks": 1, "weekly_breakdown": [{"week_number": 1, "focus_area": "x", "tasks": [{"estimated_hours": 1}]}], "total_estimated_hours": 1}`,
		"zero hours":         `{"estimated_duration_weeks": 1, "weekly_breakdown": [{"week_number": 1, "focus_area": "x", "tasks": [{"task": "t", "estimated_hours": 0}]}], "total_estimated_hours": 1}`,
		"resource no url":    `{"estimated_duration_weeks": 1, "weekly_breakdown": [` + week + `], "resources": [{"title": "a", "resource_type": "book"}], "total_estimated_hours": 1}`,
		"relevance > 1":      `{"estimated_duration_weeks": 1, "weekly_breakdown": [` + week + `], "resources": [{"title": "a", "url": "u", "resource_type": "book", "relevance_score": 1.5}], "total_estimated_hours": 1}`,
		"wrong type":         `{"estimated_duration_weeks": "six", "weekly_breakdown": [` + week + `], "total_estimated_hours": 1}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePlan(doc)
			assert.ErrorIs(t, err, ErrMalformedPlan)
		})
	}
}
