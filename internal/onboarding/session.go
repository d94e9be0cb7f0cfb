package onboarding

import (
	"errors"
	"strings"
	"time"
)

// Session is the state of one user's onboarding: where they are in the
// catalog and what they have answered. It is owned by the caller and passed
// explicitly; nothing in this package keeps sessions globally.
type Session struct {
	ID        string    `json:"id"`
	Step      Step      `json:"step"`
	Answers   Answers   `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession returns a session at the first step with no answers.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Step:      FirstStep,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ErrInsufficientData indicates a computation was requested before its required answers exist.
// It is an expected state, not a failure of the system.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError lists the answers that are still missing.
type InsufficientDataError struct {
	Missing []Field
}

func (e *InsufficientDataError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return "insufficient data: missing " + strings.Join(names, ", ")
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// RequireFields returns an *InsufficientDataError when any of fields is unanswered.
func (a Answers) RequireFields(fields ...Field) error {
	if missing := a.Missing(fields...); len(missing) > 0 {
		return &InsufficientDataError{Missing: missing}
	}
	return nil
}
