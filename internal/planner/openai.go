package planner

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hyperengineering/fitplan/internal/program"
)

// Compile-time interface check
var _ Generator = (*OpenAI)(nil)

// ChatCompletionsService defines the interface for making chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatCompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements the plan generator using OpenAI chat completions in JSON mode.
type OpenAI struct {
	completions ChatCompletionsService
	model       openai.ChatModel
}

// NewOpenAI creates a new OpenAI plan generator
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		completions: client.Chat.Completions,
		model:       openai.ChatModel(model),
	}
}

// Generate asks the model for a plan and parses the reply.
func (o *OpenAI) Generate(ctx context.Context, req program.Request) (*program.Plan, error) {
	user, err := userMessage(req)
	if err != nil {
		return nil, err
	}

	resp, err := o.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(user),
		}),
		Model: openai.F(o.model),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneratorUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", program.ErrMalformedResponse)
	}

	return program.ParsePlan([]byte(resp.Choices[0].Message.Content))
}

// ModelName returns the chat model name
func (o *OpenAI) ModelName() string {
	return string(o.model)
}
