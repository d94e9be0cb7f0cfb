package store

import (
	"context"
	"time"

	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/program"
	"github.com/hyperengineering/fitplan/internal/types"
)

// Store defines the interface contract for session and plan persistence.
type Store interface {
	CreateSession(ctx context.Context) (*onboarding.Session, error)
	GetSession(ctx context.Context, id string) (*onboarding.Session, error)
	// UpdateSession loads the session, applies fn and saves the result
	// atomically. If fn returns an error nothing is written.
	UpdateSession(ctx context.Context, id string, fn func(*onboarding.Session) error) (*onboarding.Session, error)
	DeleteSession(ctx context.Context, id string) error
	PurgeSessions(ctx context.Context, before time.Time) (int64, error)
	SavePlan(ctx context.Context, sessionID, model string, req program.Request, plan program.Plan) (*types.PlanRecord, error)
	LatestPlan(ctx context.Context, sessionID string) (*types.PlanRecord, error)
	Stats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
