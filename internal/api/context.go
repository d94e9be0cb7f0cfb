package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/validation"
)

// sessionContextKey is the context key for the resolved session.
type sessionContextKey struct{}

// ErrNoSessionInContext indicates no session was found in the context.
var ErrNoSessionInContext = errors.New("no session in context")

// WithSession returns a new context with the session attached.
func WithSession(ctx context.Context, s *onboarding.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext extracts the session from the context.
// Returns ErrNoSessionInContext if not present or nil.
func SessionFromContext(ctx context.Context) (*onboarding.Session, error) {
	s, ok := ctx.Value(sessionContextKey{}).(*onboarding.Session)
	if !ok || s == nil {
		return nil, ErrNoSessionInContext
	}
	return s, nil
}

// MustSessionFromContext extracts the session or panics.
// Use only when SessionCtx guarantees session presence.
func MustSessionFromContext(ctx context.Context) *onboarding.Session {
	s, err := SessionFromContext(ctx)
	if err != nil {
		panic("session not in context: middleware misconfiguration")
	}
	return s
}

// SessionCtx resolves the {id} URL parameter to a stored session.
// Malformed IDs get 400, unknown IDs get 404.
func (h *Handler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if verr := validation.ValidateULID("id", id); verr != nil {
			WriteProblem(w, r, http.StatusBadRequest, "Session id "+verr.Message)
			return
		}

		sess, err := h.store.GetSession(r.Context(), id)
		if err != nil {
			MapError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
