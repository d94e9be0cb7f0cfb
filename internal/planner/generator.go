// Package planner talks to the external plan-generation service.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperengineering/fitplan/internal/program"
)

// ErrGeneratorUnavailable wraps transport and service failures from a plan generator.
var ErrGeneratorUnavailable = errors.New("plan generator unavailable")

// Generator defines the interface contract for plan generation services.
type Generator interface {
	Generate(ctx context.Context, req program.Request) (*program.Plan, error)
	ModelName() string
}

// SystemPrompt fixes the response schema the generator must follow.
const SystemPrompt = `You are a certified strength coach and sports nutritionist.
You receive a JSON object describing a client: goal, timelineMonths, body metrics,
activityLevel, daysPerWeek, experience and optional preferences (equipment, injuries,
dietary restrictions, foods to avoid, coach style, workout time, sleep, session length,
preferred split and free-text coach notes).

Respond with a single JSON object and nothing else, using exactly this shape:
{
  "summary": string,
  "nutrition": {"calories": integer, "proteinGrams": integer, "carbsGrams": integer, "fatsGrams": integer},
  "training": {
    "split": string,
    "schedule": [{"day": string, "focus": string, "notes": string}]
  }
}

The schedule lists exactly daysPerWeek training days. Respect injuries, equipment and
dietary restrictions. Match the tone to coachStyle when present.`

// userMessage renders the request as the user turn.
func userMessage(req program.Request) (string, error) {
	b, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode program request: %w", err)
	}
	return string(b), nil
}
