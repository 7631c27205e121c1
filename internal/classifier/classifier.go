package classifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/airouter/internal/llm"
	"github.com/airouter/internal/models"
)

const (
	classificationMaxTokens   = 50
	classificationTemperature = 0.1
	classificationTimeout     = 15 * time.Second
)

// Classifier maps a goal to a category. Implementations never fail: any
// error degrades to a fallback category.
type Classifier interface {
	Classify(ctx context.Context, goal string) models.Category
}

type keywordRule struct {
	category models.Category
	keywords []string
}

// Rules are checked in order and the first match wins.
var keywordRules = []keywordRule{
	{models.CategoryCertification, []string{"cert", "exam", "aws", "test"}},
	{models.CategoryFitness, []string{"exercise", "fitness", "gym", "run"}},
	{models.CategoryCreative, []string{"write", "paint", "music", "art"}},
	{models.CategoryProductivity, []string{"productivity", "organize", "habits"}},
}

// KeywordClassifier is the offline classifier used in mock mode.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, goal string) models.Category {
	lower := strings.ToLower(goal)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return models.CategorySkillLearning
}

// ProviderClassifier asks a small model for the category.
type ProviderClassifier struct {
	provider    llm.Provider
	instruction string
	modelID     string
	logger      *slog.Logger
}

func NewProviderClassifier(provider llm.Provider, instruction, modelID string, logger *slog.Logger) *ProviderClassifier {
	return &ProviderClassifier{
		provider:    provider,
		instruction: instruction,
		modelID:     modelID,
		logger:      logger,
	}
}

// Classify returns the model's reply trimmed and lower-cased. Replies outside
// the known categories are passed through and only logged.
func (c *ProviderClassifier) Classify(ctx context.Context, goal string) models.Category {
	resp, err := c.provider.Invoke(ctx, llm.Request{
		ModelID:     c.modelID,
		System:      c.instruction,
		User:        goal,
		MaxTokens:   classificationMaxTokens,
		Temperature: classificationTemperature,
		Timeout:     classificationTimeout,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "error classifying goal", slog.String("error", err.Error()))
		return models.CategoryOther
	}

	category := models.Category(strings.ToLower(strings.TrimSpace(resp.Text)))
	if !category.Valid() {
		c.logger.WarnContext(ctx, "classifier returned an unknown category",
			slog.String("category", string(category)),
			slog.String("model_id", resp.ModelID),
		)
	}
	return category
}
