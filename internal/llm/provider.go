package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

// Request is a single-turn model invocation.
type Request struct {
	ModelID     string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Response carries the generated text and the token usage reported by the provider.
type Response struct {
	Text         string
	ModelID      string
	InputTokens  int
	OutputTokens int
}

func (r *Response) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider invokes a text-generation model.
type Provider interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockProvider struct {
	client ConverseAPI
}

func NewBedrockProvider(cfg aws.Config) *BedrockProvider {
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(cfg)}
}

func NewBedrockProviderWithClient(client ConverseAPI) *BedrockProvider {
	return &BedrockProvider{client: client}
}

// Invoke calls the Bedrock Converse API and concatenates the text blocks of the reply.
func (p *BedrockProvider) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.ModelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.User},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(req.MaxTokens)),
			Temperature: aws.Float32(req.Temperature),
		},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}

	output, err := p.client.Converse(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("bedrock converse error (%s): %w", apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("bedrock converse error: %w", err)
	}

	msg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.New("unexpected output type from Bedrock")
	}

	var text string
	for _, block := range msg.Value.Content {
		if b, ok := block.(*types.ContentBlockMemberText); ok {
			text += b.Value
		}
	}
	if text == "" {
		return nil, errors.New("no text content in Bedrock response")
	}

	resp := &Response{
		Text:    text,
		ModelID: req.ModelID,
	}
	if output.Usage != nil {
		resp.InputTokens = int(aws.ToInt32(output.Usage.InputTokens))
		resp.OutputTokens = int(aws.ToInt32(output.Usage.OutputTokens))
	}

	return resp, nil
}
