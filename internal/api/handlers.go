package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/fitplan/internal/metrics"
	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/planner"
	"github.com/hyperengineering/fitplan/internal/program"
	"github.com/hyperengineering/fitplan/internal/store"
	"github.com/hyperengineering/fitplan/internal/types"
	"github.com/hyperengineering/fitplan/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Handler implements the API handlers
type Handler struct {
	store     store.Store
	generator planner.Generator
	apiKey    string
	version   string
}

// NewHandler creates a new Handler
func NewHandler(s store.Store, g planner.Generator, apiKey, version string) *Handler {
	return &Handler{
		store:     s,
		generator: g,
		apiKey:    apiKey,
		version:   version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
// It writes a 400 problem and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

func sessionResponse(s *onboarding.Session) types.SessionResponse {
	return types.SessionResponse{
		ID:            s.ID,
		Step:          types.NewStepInfo(s.Step),
		Answers:       s.Answers,
		CanGoBack:     onboarding.CanGoBack(s.Step),
		Done:          s.Step == onboarding.LastStep,
		MissingFields: onboarding.MissingFields(s.Step, s.Answers),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Session store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		PlannerModel: h.generator.ModelName(),
		SessionCount: stats.Sessions,
		PlanCount:    stats.Plans,
	})
}

// Steps handles GET /api/v1/steps
func (h *Handler) Steps(w http.ResponseWriter, r *http.Request) {
	steps := onboarding.Steps()
	resp := types.StepsResponse{
		Total: len(steps),
		Steps: make([]types.StepInfo, len(steps)),
	}
	for i, s := range steps {
		resp.Steps[i] = types.NewStepInfo(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.CreateSession(r.Context())
	if err != nil {
		slog.Error("create session failed", "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(sess))
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse(MustSessionFromContext(r.Context())))
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := MustSessionFromContext(r.Context())
	if err := h.store.DeleteSession(r.Context(), sess.ID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("delete session failed", "error", err, "session_id", sess.ID)
		}
		MapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// update applies fn to the session in context and writes the result.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, fn func(*onboarding.Session) error) {
	id := MustSessionFromContext(r.Context()).ID
	sess, err := h.store.UpdateSession(r.Context(), id, fn)
	if err != nil {
		var fe fieldErrors
		var ide *onboarding.InsufficientDataError
		if !errors.As(err, &fe) && !errors.As(err, &ide) && !errors.Is(err, store.ErrNotFound) {
			slog.Error("update session failed", "error", err, "session_id", id)
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

// UpdateAnswers handles PATCH /api/v1/sessions/{id}/answers
func (h *Handler) UpdateAnswers(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateAnswersRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, errs := normalizeAnswers(req)
	errs = append(errs, validation.ValidateAnswers(patch)...)
	if len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	h.update(w, r, func(s *onboarding.Session) error {
		s.Answers.Merge(patch)
		return nil
	})
}

// normalizeAnswers converts imperial inputs to the metric fields. Imperial
// values are range-checked under their own names.
func normalizeAnswers(req types.UpdateAnswersRequest) (onboarding.Answers, []validation.ValidationError) {
	patch := req.Answers
	var errs []validation.ValidationError

	if req.WeightLb != nil {
		if patch.WeightKg != nil {
			errs = append(errs, validation.ValidationError{Field: "weightLb", Message: "cannot be combined with weightKg"})
		} else if verr := validation.ValidateWeightLb("weightLb", *req.WeightLb); verr != nil {
			errs = append(errs, *verr)
		} else {
			patch.WeightKg = onboarding.Ptr(onboarding.PoundsToKg(*req.WeightLb))
		}
	}
	if req.HeightIn != nil {
		if patch.HeightCm != nil {
			errs = append(errs, validation.ValidationError{Field: "heightIn", Message: "cannot be combined with heightCm"})
		} else if verr := validation.ValidateHeightIn("heightIn", *req.HeightIn); verr != nil {
			errs = append(errs, *verr)
		} else {
			patch.HeightCm = onboarding.Ptr(onboarding.InchesToCm(*req.HeightIn))
		}
	}
	return patch, errs
}

// AppendCoachNotes handles POST /api/v1/sessions/{id}/coach-notes
func (h *Handler) AppendCoachNotes(w http.ResponseWriter, r *http.Request) {
	var req types.CoachNotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateCoachNotes(req.Text); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	h.update(w, r, func(s *onboarding.Session) error {
		s.Answers.AppendCoachNotes(req.Text)
		if s.Answers.CoachNotes == nil {
			return nil
		}
		if verr := validation.ValidateMaxLength(string(onboarding.FieldCoachNotes), *s.Answers.CoachNotes, validation.MaxCoachNotesLength); verr != nil {
			return fieldErrors{*verr}
		}
		return nil
	})
}

// Advance handles POST /api/v1/sessions/{id}/advance
// The current step's required answers must be present.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(s *onboarding.Session) error {
		if missing := onboarding.MissingFields(s.Step, s.Answers); len(missing) > 0 {
			return &onboarding.InsufficientDataError{Missing: missing}
		}
		flow := onboarding.ResumeFlow(s.Step)
		flow.Next()
		flow.Prefill(&s.Answers)
		s.Step = flow.Current()
		return nil
	})
}

// Retreat handles POST /api/v1/sessions/{id}/retreat
func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(s *onboarding.Session) error {
		flow := onboarding.ResumeFlow(s.Step)
		flow.Back()
		s.Step = flow.Current()
		return nil
	})
}

// Metrics handles GET /api/v1/sessions/{id}/metrics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	sess := MustSessionFromContext(r.Context())

	result, err := metrics.Compute(sess.Answers)
	if err != nil {
		var ide *onboarding.InsufficientDataError
		if errors.As(err, &ide) {
			writeJSON(w, http.StatusOK, types.MetricsResponse{MissingFields: ide.Missing})
			return
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.MetricsResponse{Available: true, Metrics: result})
}

// ProgramRequest handles GET /api/v1/sessions/{id}/program-request
func (h *Handler) ProgramRequest(w http.ResponseWriter, r *http.Request) {
	req, err := program.Build(MustSessionFromContext(r.Context()).Answers)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GeneratePlan handles POST /api/v1/sessions/{id}/plan
// A fresh request is built from the current answers on every call.
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	sess := MustSessionFromContext(r.Context())

	req, err := program.Build(sess.Answers)
	if err != nil {
		MapError(w, r, err)
		return
	}

	plan, err := h.generator.Generate(r.Context(), *req)
	if err != nil {
		slog.Warn("plan generation failed",
			"error", err,
			"session_id", sess.ID,
			"model", h.generator.ModelName(),
		)
		MapError(w, r, err)
		return
	}

	rec, err := h.store.SavePlan(r.Context(), sess.ID, h.generator.ModelName(), *req, *plan)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("save plan failed", "error", err, "session_id", sess.ID)
		}
		MapError(w, r, err)
		return
	}

	slog.Info("plan generated",
		"session_id", sess.ID,
		"plan_id", rec.ID,
		"model", rec.Model,
	)
	writeJSON(w, http.StatusCreated, rec)
}

// LatestPlan handles GET /api/v1/sessions/{id}/plan
func (h *Handler) LatestPlan(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.LatestPlan(r.Context(), MustSessionFromContext(r.Context()).ID)
	if err != nil {
		if !errors.Is(err, store.ErrPlanNotFound) {
			slog.Error("load plan failed", "error", err)
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
