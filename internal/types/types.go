package types

import (
	"encoding/json"
	"time"

	"github.com/hyperengineering/fitplan/internal/metrics"
	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/program"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	PlannerModel string `json:"plannerModel"`
	SessionCount int64  `json:"sessionCount"`
	PlanCount    int64  `json:"planCount"`
}

// StepInfo describes one step of the onboarding flow.
type StepInfo struct {
	Name     string           `json:"name"`
	Label    string           `json:"label"`
	Phase    onboarding.Phase `json:"phase"`
	Index    int              `json:"index"`
	Progress float64          `json:"progress"`
}

// NewStepInfo describes s.
func NewStepInfo(s onboarding.Step) StepInfo {
	return StepInfo{
		Name:     s.Name(),
		Label:    s.Label(),
		Phase:    s.Phase(),
		Index:    s.Index(),
		Progress: onboarding.ProgressFraction(s),
	}
}

// StepsResponse lists the step catalog in order.
type StepsResponse struct {
	Total int        `json:"total"`
	Steps []StepInfo `json:"steps"`
}

// SessionResponse is the client view of an onboarding session.
type SessionResponse struct {
	ID            string             `json:"id"`
	Step          StepInfo           `json:"step"`
	Answers       onboarding.Answers `json:"answers"`
	CanGoBack     bool               `json:"canGoBack"`
	Done          bool               `json:"done"`
	MissingFields []onboarding.Field `json:"missingFields"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// UpdateAnswersRequest is a partial answers patch. Imperial inputs are
// accepted alongside the metric fields and converted at the boundary.
type UpdateAnswersRequest struct {
	onboarding.Answers
	WeightLb *float64 `json:"weightLb,omitzero"`
	HeightIn *float64 `json:"heightIn,omitzero"`
}

// CoachNotesRequest carries free text from the coach dialogue.
type CoachNotesRequest struct {
	Text string `json:"text"`
}

// MetricsResponse is the metrics teaser, or the fields still missing.
type MetricsResponse struct {
	Available     bool               `json:"available"`
	Metrics       *metrics.Result    `json:"metrics,omitempty"`
	MissingFields []onboarding.Field `json:"missingFields"`
}

// PlanRecord is a generated plan stored against a session.
type PlanRecord struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Model     string          `json:"model"`
	Request   program.Request `json:"request"`
	Plan      program.Plan    `json:"plan"`
	CreatedAt time.Time       `json:"createdAt"`
}

// StoreStats holds aggregate store statistics.
type StoreStats struct {
	Sessions          int64 `json:"sessions"`
	CompletedSessions int64 `json:"completedSessions"`
	Plans             int64 `json:"plans"`
}

// MarshalJSON ensures nil slices in SessionResponse marshal as [] not null.
func (s SessionResponse) MarshalJSON() ([]byte, error) {
	if s.MissingFields == nil {
		s.MissingFields = []onboarding.Field{}
	}
	type Alias SessionResponse
	return json.Marshal(Alias(s))
}

// MarshalJSON ensures nil slices in MetricsResponse marshal as [] not null.
func (m MetricsResponse) MarshalJSON() ([]byte, error) {
	if m.MissingFields == nil {
		m.MissingFields = []onboarding.Field{}
	}
	type Alias MetricsResponse
	return json.Marshal(Alias(m))
}
