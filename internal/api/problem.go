package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/planner"
	"github.com/hyperengineering/fitplan/internal/program"
	"github.com/hyperengineering/fitplan/internal/store"
	"github.com/hyperengineering/fitplan/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {"https://fitplan.dev/errors/bad-request", "Bad Request"},
	http.StatusUnauthorized:        {"https://fitplan.dev/errors/unauthorized", "Unauthorized"},
	http.StatusNotFound:            {"https://fitplan.dev/errors/not-found", "Not Found"},
	http.StatusUnprocessableEntity: {"https://fitplan.dev/errors/validation-error", "Validation Error"},
	http.StatusTooManyRequests:     {"https://fitplan.dev/errors/rate-limit", "Too Many Requests"},
	http.StatusInternalServerError: {"https://fitplan.dev/errors/internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {"https://fitplan.dev/errors/bad-gateway", "Bad Gateway"},
	http.StatusServiceUnavailable:  {"https://fitplan.dev/errors/service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{"https://fitplan.dev/errors/unknown", http.StatusText(status)}
	}
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// WriteRetryableProblem writes a problem the client may retry as-is.
func WriteRetryableProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	p := newProblem(r, status, detail)
	p.Retryable = true
	writeProblemBody(w, status, p)
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

// fieldErrors carries validation failures out of a store update callback.
type fieldErrors []validation.ValidationError

func (e fieldErrors) Error() string {
	return "invalid fields"
}

// missingFieldErrors renders missing answers as field errors.
func missingFieldErrors(missing []onboarding.Field) []validation.ValidationError {
	errs := make([]validation.ValidationError, len(missing))
	for i, f := range missing {
		errs[i] = validation.ValidationError{Field: string(f), Message: "is required"}
	}
	return errs
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var fe fieldErrors
	var ide *onboarding.InsufficientDataError

	switch {
	case errors.As(err, &fe):
		WriteProblemWithErrors(w, r, "Request contains invalid fields", fe)
	case errors.As(err, &ide):
		WriteProblemWithErrors(w, r, "Required answers are missing", missingFieldErrors(ide.Missing))
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Session not found")
	case errors.Is(err, store.ErrPlanNotFound):
		WriteProblem(w, r, http.StatusNotFound, "No plan has been generated for this session")
	case errors.Is(err, program.ErrMalformedResponse):
		WriteRetryableProblem(w, r, http.StatusBadGateway, "Plan generator returned an incomplete plan")
	case errors.Is(err, planner.ErrGeneratorUnavailable):
		WriteRetryableProblem(w, r, http.StatusServiceUnavailable, "Plan generator unavailable")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
