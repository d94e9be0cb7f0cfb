package program

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse indicates the plan generator returned something other
// than a complete plan. Callers may retry; a partial plan is never returned.
var ErrMalformedResponse = errors.New("malformed plan response")

// Plan is the structured program returned by the plan generator.
type Plan struct {
	Summary   string    `json:"summary"`
	Nutrition Nutrition `json:"nutrition"`
	Training  Training  `json:"training"`
}

// Nutrition holds daily targets in whole units.
type Nutrition struct {
	Calories     int `json:"calories"`
	ProteinGrams int `json:"proteinGrams"`
	CarbsGrams   int `json:"carbsGrams"`
	FatsGrams    int `json:"fatsGrams"`
}

// Training describes the weekly schedule.
type Training struct {
	Split    string        `json:"split"`
	Schedule []ScheduleDay `json:"schedule"`
}

// ScheduleDay is one day of the training schedule.
type ScheduleDay struct {
	Day   string `json:"day"`
	Focus string `json:"focus"`
	Notes string `json:"notes"`
}

var nutritionKeys = []string{"calories", "proteinGrams", "carbsGrams", "fatsGrams"}

// ParsePlan validates raw generator output and decodes it.
// Markdown code fences around the JSON are tolerated. Anything that is not a
// JSON object with a non-empty summary, integer nutrition fields and a
// non-empty schedule of {day, focus, notes} fails with ErrMalformedResponse.
func ParsePlan(raw []byte) (*Plan, error) {
	raw = stripCodeFence(raw)
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedResponse)
	}

	if s := root.Get("summary"); s.Type != gjson.String || s.String() == "" {
		return nil, fmt.Errorf("%w: summary missing or not a string", ErrMalformedResponse)
	}

	nutrition := root.Get("nutrition")
	if !nutrition.IsObject() {
		return nil, fmt.Errorf("%w: nutrition missing", ErrMalformedResponse)
	}
	for _, key := range nutritionKeys {
		v := nutrition.Get(key)
		if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
			return nil, fmt.Errorf("%w: nutrition.%s must be an integer", ErrMalformedResponse, key)
		}
	}

	training := root.Get("training")
	if !training.IsObject() {
		return nil, fmt.Errorf("%w: training missing", ErrMalformedResponse)
	}
	schedule := training.Get("schedule")
	if !schedule.IsArray() || len(schedule.Array()) == 0 {
		return nil, fmt.Errorf("%w: training.schedule must be a non-empty array", ErrMalformedResponse)
	}
	for i, day := range schedule.Array() {
		if !day.IsObject() {
			return nil, fmt.Errorf("%w: training.schedule[%d] is not an object", ErrMalformedResponse, i)
		}
		for _, key := range []string{"day", "focus", "notes"} {
			if day.Get(key).Type != gjson.String {
				return nil, fmt.Errorf("%w: training.schedule[%d].%s must be a string", ErrMalformedResponse, i, key)
			}
		}
	}

	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &plan, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("```")) {
		return raw
	}
	raw = raw[3:]
	if nl := bytes.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[nl+1:]
	}
	raw = bytes.TrimSuffix(bytes.TrimSpace(raw), []byte("```"))
	return bytes.TrimSpace(raw)
}
