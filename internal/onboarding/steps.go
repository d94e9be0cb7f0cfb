package onboarding

import (
	"fmt"
)

// Phase groups consecutive steps of the questionnaire.
type Phase string

const (
	PhaseTrust            Phase = "trust"
	PhaseFoundation       Phase = "foundation"
	PhaseWorkoutEngine    Phase = "workout_engine"
	PhaseNutritionPaywall Phase = "nutrition_paywall"
)

// Phases lists the phases in questionnaire order.
var Phases = []Phase{PhaseTrust, PhaseFoundation, PhaseWorkoutEngine, PhaseNutritionPaywall}

// Step is a position in the fixed step catalog.
type Step int

const (
	StepWelcome Step = iota
	StepGoal
	StepGoalTimeline
	StepSocialProof

	StepSex
	StepAge
	StepHeight
	StepWeight
	StepActivityLevel

	StepExperience
	StepTrainingDays
	StepTrainingSplit
	StepEquipment
	StepInjuries
	StepWorkoutTime
	StepSessionLength
	StepSleep

	StepDietaryRestrictions
	StepAvoidFoods
	StepCoachStyle
	StepPlanTeaser
	StepPaywall
	StepProcessing
)

// FirstStep is where every flow starts; LastStep is the terminal summary step.
const (
	FirstStep = StepWelcome
	LastStep  = StepProcessing
)

type stepInfo struct {
	name  string
	label string
	phase Phase
}

// catalog is indexed by Step. Positions never change.
var catalog = [...]stepInfo{
	StepWelcome:      {"welcome", "Welcome", PhaseTrust},
	StepGoal:         {"goal", "What is your main goal?", PhaseTrust},
	StepGoalTimeline: {"goal_timeline", "How fast do you want results?", PhaseTrust},
	StepSocialProof:  {"social_proof", "People like you succeed here", PhaseTrust},

	StepSex:           {"sex", "Sex", PhaseFoundation},
	StepAge:           {"age", "Age", PhaseFoundation},
	StepHeight:        {"height", "Height", PhaseFoundation},
	StepWeight:        {"weight", "Weight", PhaseFoundation},
	StepActivityLevel: {"activity_level", "How active is your day?", PhaseFoundation},

	StepExperience:    {"experience", "Training experience", PhaseWorkoutEngine},
	StepTrainingDays:  {"training_days", "Days per week", PhaseWorkoutEngine},
	StepTrainingSplit: {"training_split", "Preferred split", PhaseWorkoutEngine},
	StepEquipment:     {"equipment", "Available equipment", PhaseWorkoutEngine},
	StepInjuries:      {"injuries", "Injuries or limitations", PhaseWorkoutEngine},
	StepWorkoutTime:   {"workout_time", "When do you train?", PhaseWorkoutEngine},
	StepSessionLength: {"session_length", "Session length", PhaseWorkoutEngine},
	StepSleep:         {"sleep", "Sleep", PhaseWorkoutEngine},

	StepDietaryRestrictions: {"dietary_restrictions", "Dietary restrictions", PhaseNutritionPaywall},
	StepAvoidFoods:          {"avoid_foods", "Foods to avoid", PhaseNutritionPaywall},
	StepCoachStyle:          {"coach_style", "Coach style", PhaseNutritionPaywall},
	StepPlanTeaser:          {"plan_teaser", "Your plan preview", PhaseNutritionPaywall},
	StepPaywall:             {"paywall", "Unlock your program", PhaseNutritionPaywall},
	StepProcessing:          {"processing", "Building your program", PhaseNutritionPaywall},
}

// TotalSteps returns the number of steps in the catalog.
func TotalSteps() int {
	return len(catalog)
}

// Steps returns every step in catalog order.
func Steps() []Step {
	out := make([]Step, len(catalog))
	for i := range catalog {
		out[i] = Step(i)
	}
	return out
}

// Valid reports whether s is a catalog position.
func (s Step) Valid() bool {
	return s >= 0 && int(s) < len(catalog)
}

// info panics on an out-of-range step: the catalog is static, so a bad
// step is a programming error.
func (s Step) info() stepInfo {
	if !s.Valid() {
		panic(fmt.Sprintf("onboarding: step %d out of range [0, %d)", int(s), len(catalog)))
	}
	return catalog[s]
}

// Name returns the stable wire name of the step.
func (s Step) Name() string {
	return s.info().name
}

// Label returns the human label shown for the step.
func (s Step) Label() string {
	return s.info().label
}

// Phase returns the phase the step belongs to.
func (s Step) Phase() Phase {
	return s.info().phase
}

// Index returns the 1-based position of the step.
func (s Step) Index() int {
	s.info()
	return int(s) + 1
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return catalog[s].name
}

// PhaseOf returns the phase of s. Panics if s is out of range.
func PhaseOf(s Step) Phase {
	return s.Phase()
}

// ProgressFraction returns Index/TotalSteps, a value in (0, 1].
func ProgressFraction(s Step) float64 {
	return float64(s.Index()) / float64(TotalSteps())
}

// ParseStep resolves a wire name to its step.
func ParseStep(name string) (Step, error) {
	for i, info := range catalog {
		if info.name == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// MarshalText encodes the step as its wire name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("step %d out of range", int(s))
	}
	return []byte(catalog[s].name), nil
}

// UnmarshalText decodes a wire name.
func (s *Step) UnmarshalText(text []byte) error {
	parsed, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
