package llm

import (
	"fmt"
)

const (
	charsPerToken        = 4
	systemPromptOverhead = 600

	MaxInputTokens  = 2000
	MaxOutputTokens = 4000

	// Claude Haiku pricing, per 1K tokens
	CostPer1KInputTokens  = 0.00025
	CostPer1KOutputTokens = 0.00125

	MaxCostPerRequest = 0.50

	ModelClaude3Sonnet = "anthropic.claude-3-sonnet-20240229-v1:0"
	ModelClaude3Haiku  = "anthropic.claude-3-haiku-20240307-v1:0"
	ModelClaude3Opus   = "anthropic.claude-3-opus-20240229-v1:0"
)

// EstimateTokens approximates the token count of text at ~4 characters per token.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// EstimateRequestTokens estimates the input tokens of a plan request,
// including the system prompt overhead.
func EstimateRequestTokens(goal, context string) int {
	return EstimateTokens(goal) + EstimateTokens(context) + systemPromptOverhead
}

// BudgetExceededError is returned by BudgetGuard.Check when a request is
// too large or too expensive to send to the model.
type BudgetExceededError struct {
	Reason           string
	EstimatedTokens  int
	MaxAllowedTokens int
	EstimatedCostUSD float64
	MaxCostUSD       float64
	Message          string
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s: estimated %d tokens (max %d), estimated cost $%.4f (max $%.2f)",
		e.Reason, e.EstimatedTokens, e.MaxAllowedTokens, e.EstimatedCostUSD, e.MaxCostUSD)
}

// BudgetGuard enforces per-request token and cost ceilings before any
// paid generation call is made.
type BudgetGuard struct {
	MaxInputTokens    int
	MaxOutputTokens   int
	InputCostPer1K    float64
	OutputCostPer1K   float64
	MaxCostPerRequest float64
}

func DefaultBudgetGuard() BudgetGuard {
	return BudgetGuard{
		MaxInputTokens:    MaxInputTokens,
		MaxOutputTokens:   MaxOutputTokens,
		InputCostPer1K:    CostPer1KInputTokens,
		OutputCostPer1K:   CostPer1KOutputTokens,
		MaxCostPerRequest: MaxCostPerRequest,
	}
}

// ProjectedCost prices the estimated input plus the full output allotment.
func (g BudgetGuard) ProjectedCost(estimatedTokens int) float64 {
	inputCost := (float64(estimatedTokens) / 1000.0) * g.InputCostPer1K
	outputCost := (float64(g.MaxOutputTokens) / 1000.0) * g.OutputCostPer1K
	return inputCost + outputCost
}

// Check returns nil when the request fits the budget, or a *BudgetExceededError.
func (g BudgetGuard) Check(estimatedTokens int) error {
	cost := g.ProjectedCost(estimatedTokens)

	if estimatedTokens > g.MaxInputTokens {
		return &BudgetExceededError{
			Reason:           "Input too large",
			EstimatedTokens:  estimatedTokens,
			MaxAllowedTokens: g.MaxInputTokens,
			EstimatedCostUSD: cost,
			MaxCostUSD:       g.MaxCostPerRequest,
			Message:          "Please shorten your goal or context to reduce the request size.",
		}
	}

	if cost > g.MaxCostPerRequest {
		return &BudgetExceededError{
			Reason:           "Request too expensive",
			EstimatedTokens:  estimatedTokens,
			MaxAllowedTokens: g.MaxInputTokens,
			EstimatedCostUSD: cost,
			MaxCostUSD:       g.MaxCostPerRequest,
			Message:          "This request would be too expensive to process. Please shorten your goal or context.",
		}
	}

	return nil
}

// EstimateLLMCost estimates the cost of an LLM request based on input/output tokens
func EstimateLLMCost(inputTokens, outputTokens int, model string) float64 {
	// Cost per 1K tokens for Bedrock models
	costs := map[string]struct {
		input  float64
		output float64
	}{
		ModelClaude3Sonnet: {
			input:  0.003, // $3.00 per 1M input tokens
			output: 0.015, // $15.00 per 1M output tokens
		},
		ModelClaude3Haiku: {
			input:  CostPer1KInputTokens,
			output: CostPer1KOutputTokens,
		},
		ModelClaude3Opus: {
			input:  0.015,
			output: 0.075,
		},
	}

	modelCosts, exists := costs[model]
	if !exists {
		modelCosts = costs[ModelClaude3Sonnet]
	}

	inputCost := (float64(inputTokens) / 1000.0) * modelCosts.input
	outputCost := (float64(outputTokens) / 1000.0) * modelCosts.output

	return inputCost + outputCost
}
