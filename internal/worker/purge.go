// Package worker runs background maintenance against the session store.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// PurgeStore defines the store operations needed by the purge worker.
type PurgeStore interface {
	PurgeSessions(ctx context.Context, before time.Time) (int64, error)
}

// SessionPurgeWorker periodically deletes abandoned onboarding sessions.
type SessionPurgeWorker struct {
	store    PurgeStore
	interval time.Duration
	ttl      time.Duration
}

// NewSessionPurgeWorker creates a worker that every interval deletes sessions
// not updated within ttl.
func NewSessionPurgeWorker(store PurgeStore, interval, ttl time.Duration) *SessionPurgeWorker {
	return &SessionPurgeWorker{
		store:    store,
		interval: interval,
		ttl:      ttl,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Does NOT run immediately on start.
func (w *SessionPurgeWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "session-purge",
		"interval", w.interval.String(),
		"ttl", w.ttl.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "session-purge",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runPurge(ctx)
		}
	}
}

// runPurge executes a single purge cycle.
func (w *SessionPurgeWorker) runPurge(ctx context.Context) {
	start := time.Now()
	cutoff := start.Add(-w.ttl)

	slog.Debug("purge cycle started",
		"component", "worker",
		"action", "purge_start",
		"cutoff", cutoff.Format(time.RFC3339),
	)

	purged, err := w.store.PurgeSessions(ctx, cutoff)
	if err != nil {
		// Check for graceful shutdown
		if ctx.Err() != nil {
			return
		}
		slog.Error("purge failed",
			"component", "worker",
			"action", "purge_failed",
			"error", err,
		)
		return
	}

	slog.Info("purge cycle completed",
		"component", "worker",
		"action", "purge_complete",
		"purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
