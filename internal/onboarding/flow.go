package onboarding

// Advance returns the step after s, or s itself when s is the last step.
func Advance(s Step) Step {
	s.info()
	if s == LastStep {
		return s
	}
	return s + 1
}

// Retreat returns the step before s, or s itself when s is the first step.
func Retreat(s Step) Step {
	s.info()
	if s == FirstStep {
		return s
	}
	return s - 1
}

// CanGoBack reports whether s has a previous step.
func CanGoBack(s Step) bool {
	s.info()
	return s != FirstStep
}

// Flow walks the step catalog one step at a time.
// A Flow belongs to a single session and is not safe for concurrent use.
type Flow struct {
	current Step
}

// NewFlow returns a flow positioned at the first step.
func NewFlow() *Flow {
	return &Flow{current: FirstStep}
}

// ResumeFlow returns a flow positioned at s. Panics if s is out of range.
func ResumeFlow(s Step) *Flow {
	s.info()
	return &Flow{current: s}
}

// Current returns the current step.
func (f *Flow) Current() Step { return f.current }

// Next moves to the following step and returns it. No-op at the last step.
func (f *Flow) Next() Step {
	f.current = Advance(f.current)
	return f.current
}

// Back moves to the previous step and returns it. No-op at the first step.
func (f *Flow) Back() Step {
	f.current = Retreat(f.current)
	return f.current
}

// CanGoBack reports whether Back would move.
func (f *Flow) CanGoBack() bool { return CanGoBack(f.current) }

// Progress returns the display progress fraction for the current step.
func (f *Flow) Progress() float64 { return ProgressFraction(f.current) }

// Phase returns the phase of the current step.
func (f *Flow) Phase() Phase { return f.current.Phase() }

// Done reports whether the flow has reached the terminal step.
func (f *Flow) Done() bool { return f.current == LastStep }

// Prefill applies the current step's defaults to a.
func (f *Flow) Prefill(a *Answers) []Field {
	return Prefill(f.current, a)
}
