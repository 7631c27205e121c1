package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/airouter/internal/llm"
	"github.com/airouter/internal/logging"
	"github.com/airouter/internal/models"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*llm.Response)
	return resp, args.Error(1)
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		goal string
		want models.Category
	}{
		{"Pass the AWS Solutions Architect exam", models.CategoryCertification},
		{"Get my PMP certification", models.CategoryCertification},
		{"Go to the gym three times a week", models.CategoryFitness},
		{"Finish my first half marathon run", models.CategoryFitness},
		{"Paint a series of landscapes", models.CategoryCreative},
		{"Build better morning habits", models.CategoryProductivity},
		{"Learn to play jazz piano improvisation", models.CategorySkillLearning},
		{"Speak conversational Spanish", models.CategorySkillLearning},
		// first rule wins
		{"Prepare for the exam with daily exercise", models.CategoryCertification},
		{"EXERCISE while listening to music", models.CategoryFitness},
	}

	c := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.goal, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.goal))
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.goal))
		})
	}
}

func TestProviderClassifier_Classify(t *testing.T) {
	p := new(mockProvider)
	p.On("Invoke", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.ModelID == llm.ModelClaude3Haiku &&
			req.System == "instruction" &&
			req.User == "Run a 10k" &&
			req.MaxTokens == 50 &&
			req.Temperature == float32(0.1)
	})).Return(&llm.Response{Text: "  Fitness\n", ModelID: llm.ModelClaude3Haiku}, nil)

	c := NewProviderClassifier(p, "instruction", llm.ModelClaude3Haiku, logging.Discard())
	assert.Equal(t, models.CategoryFitness, c.Classify(context.Background(), "Run a 10k"))
	p.AssertExpectations(t)
}

func TestProviderClassifier_PassesThroughUnknownCategory(t *testing.T) {
	p := new(mockProvider)
	p.On("Invoke", mock.Anything, mock.Anything).Return(&llm.Response{Text: "Hobby"}, nil)

	c := NewProviderClassifier(p, "instruction", llm.ModelClaude3Haiku, logging.Discard())
	assert.Equal(t, models.Category("hobby"), c.Classify(context.Background(), "Collect stamps"))
}

func TestProviderClassifier_ErrorFallsBackToOther(t *testing.T) {
	p := new(mockProvider)
	p.On("Invoke", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	c := NewProviderClassifier(p, "instruction", llm.ModelClaude3Haiku, logging.Discard())
	assert.Equal(t, models.CategoryOther, c.Classify(context.Background(), "Learn Rust"))
}
