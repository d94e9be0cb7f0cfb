package planner

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hyperengineering/fitplan/internal/program"
)

var _ Generator = (*Gemini)(nil)

// ContentGenerator is the subset of *genai.Models used by Gemini.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements the plan generator using the Gemini API with a JSON response MIME type.
type Gemini struct {
	models ContentGenerator
	model  string
}

// NewGemini creates a Gemini plan generator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{models: cli.Models, model: model}, nil
}

// Generate asks the model for a plan and parses the reply.
func (g *Gemini) Generate(ctx context.Context, req program.Request) (*program.Plan, error) {
	user, err := userMessage(req)
	if err != nil {
		return nil, err
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: user}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemPrompt}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneratorUnavailable, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidate list", program.ErrMalformedResponse)
	}

	return program.ParsePlan([]byte(resp.Candidates[0].Content.Parts[0].Text))
}

// ModelName returns the Gemini model name.
func (g *Gemini) ModelName() string {
	return g.model
}
