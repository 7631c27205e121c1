package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/airouter/internal/llm"
	"github.com/airouter/internal/logging"
	"github.com/airouter/internal/models"
)

const (
	generationTemperature = 0.7
	generationTimeout     = 90 * time.Second

	MockModelID = "mock-model"
)

// Generator produces a structured plan for a classified goal.
type Generator interface {
	Generate(ctx context.Context, goal, goalContext string, category models.Category, requestID string) (*models.Plan, error)
}

// SystemPromptBuilder returns the plan instruction for a category.
type SystemPromptBuilder interface {
	PlanSystemPrompt(category models.Category) string
}

// SampleGenerator returns a fixed plan without calling a model. Used in mock mode.
type SampleGenerator struct {
	Now func() time.Time
}

func (g SampleGenerator) Generate(_ context.Context, goal, _ string, category models.Category, requestID string) (*models.Plan, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	return &models.Plan{
		RequestID:              requestID,
		Goal:                   goal,
		Category:               category,
		EstimatedDurationWeeks: 8,
		WeeklyBreakdown: []models.WeeklyBreakdown{
			{
				WeekNumber: 1,
				FocusArea:  "Fundamentals and Setup",
				Tasks: []models.WeeklyTask{
					{Task: "Research and understand the basics of your goal", EstimatedHours: 5.0, Milestone: true},
					{Task: "Set up necessary tools and resources", EstimatedHours: 3.0},
				},
			},
			{
				WeekNumber: 2,
				FocusArea:  "Building Core Skills",
				Tasks: []models.WeeklyTask{
					{Task: "Practice basic techniques daily", EstimatedHours: 7.0},
				},
			},
		},
		Resources: []models.Resource{
			{Title: "Getting Started Guide", URL: "https://example.com/guide", ResourceType: "article"},
		},
		TotalEstimatedHours: 64.0,
		CreatedAt:           now().UTC(),
		Metadata: models.PlanMetadata{
			TokensUsed: models.TokenUsage{Input: 500, Output: 1200, Total: 1700},
			Model:      MockModelID,
			MockMode:   true,
		},
	}, nil
}

// ProviderGenerator asks a model for the plan and decodes its reply.
type ProviderGenerator struct {
	provider  llm.Provider
	prompts   SystemPromptBuilder
	modelID   string
	maxTokens int
	logger    *slog.Logger
	now       func() time.Time
}

func NewProviderGenerator(provider llm.Provider, prompts SystemPromptBuilder, modelID string, logger *slog.Logger) *ProviderGenerator {
	return &ProviderGenerator{
		provider:  provider,
		prompts:   prompts,
		modelID:   modelID,
		maxTokens: llm.MaxOutputTokens,
		logger:    logger,
		now:       time.Now,
	}
}

// UserMessage formats the goal and optional context as the user turn.
func UserMessage(goal, goalContext string) string {
	msg := "Goal: " + goal
	if goalContext != "" {
		msg += "\nAdditional context: " + goalContext
	}
	return msg
}

func (g *ProviderGenerator) Generate(ctx context.Context, goal, goalContext string, category models.Category, requestID string) (*models.Plan, error) {
	g.logger.InfoContext(ctx, "calling model for plan generation",
		slog.String("request_id", requestID),
		slog.String("model_id", g.modelID),
		slog.String("category", string(category)),
	)

	start := time.Now()
	resp, err := g.provider.Invoke(ctx, llm.Request{
		ModelID:     g.modelID,
		System:      g.prompts.PlanSystemPrompt(category),
		User:        UserMessage(goal, goalContext),
		MaxTokens:   g.maxTokens,
		Temperature: generationTemperature,
		Timeout:     generationTimeout,
	})
	if err != nil {
		logging.LLMCall(ctx, g.logger, requestID, g.modelID, 0, 0, time.Since(start), false)
		logging.Error(ctx, g.logger, requestID, "GenerationProviderFailure", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	logging.LLMCall(ctx, g.logger, requestID, resp.ModelID, resp.InputTokens, resp.OutputTokens, time.Since(start), true)

	parsed, err := DecodePlan(resp.Text)
	if err != nil {
		logging.Error(ctx, g.logger, requestID, "GenerationParseFailure", err)
		return nil, err
	}

	return &models.Plan{
		RequestID:              requestID,
		Goal:                   goal,
		Category:               category,
		EstimatedDurationWeeks: parsed.EstimatedDurationWeeks,
		WeeklyBreakdown:        parsed.WeeklyBreakdown,
		Resources:              parsed.Resources,
		TotalEstimatedHours:    parsed.TotalEstimatedHours,
		CreatedAt:              g.now().UTC(),
		Metadata: models.PlanMetadata{
			TokensUsed: models.TokenUsage{
				Input:  resp.InputTokens,
				Output: resp.OutputTokens,
				Total:  resp.TotalTokens(),
			},
			Model:            resp.ModelID,
			EstimatedCostUSD: llm.EstimateLLMCost(resp.InputTokens, resp.OutputTokens, resp.ModelID),
		},
	}, nil
}
