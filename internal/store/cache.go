package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// DefaultCacheEntries is the session cache size used when none is configured.
const DefaultCacheEntries = 1024

var _ Store = (*CachedStore)(nil)

// CachedStore wraps a Store with an LRU cache of sessions. Callers always
// receive copies, never the cached value.
//
// Every write bumps a write epoch after it commits. A value read from the
// underlying store is only cached if no write finished while it was in
// flight, so a slow read can never overwrite a newer session or bring back a
// deleted one.
type CachedStore struct {
	Store
	sessions *lru.Cache[string, onboarding.Session]

	mu    sync.Mutex
	epoch uint64
}

// NewCachedStore wraps s with a cache of up to size sessions.
func NewCachedStore(s Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	cache, err := lru.New[string, onboarding.Session](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &CachedStore{Store: s, sessions: cache}, nil
}

func (c *CachedStore) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// putIfUnchanged caches sess unless a write finished since start.
func (c *CachedStore) putIfUnchanged(start uint64, sess *onboarding.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == start {
		c.put(sess)
	}
}

// written records a committed write to id. The fresh value is cached only
// when no other write finished while this one was running.
func (c *CachedStore) written(start uint64, id string, fresh *onboarding.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	concurrent := c.epoch != start
	c.epoch++
	if fresh == nil || concurrent {
		c.sessions.Remove(id)
		return
	}
	c.put(fresh)
}

func (c *CachedStore) put(sess *onboarding.Session) {
	cp := *sess
	cp.Answers = sess.Answers.Clone()
	c.sessions.Add(sess.ID, cp)
}

func (c *CachedStore) CreateSession(ctx context.Context) (*onboarding.Session, error) {
	start := c.currentEpoch()
	sess, err := c.Store.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	c.putIfUnchanged(start, sess)
	return sess, nil
}

func (c *CachedStore) GetSession(ctx context.Context, id string) (*onboarding.Session, error) {
	if cached, ok := c.sessions.Get(id); ok {
		cached.Answers = cached.Answers.Clone()
		return &cached, nil
	}
	start := c.currentEpoch()
	sess, err := c.Store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	c.putIfUnchanged(start, sess)
	return sess, nil
}

func (c *CachedStore) UpdateSession(ctx context.Context, id string, fn func(*onboarding.Session) error) (*onboarding.Session, error) {
	start := c.currentEpoch()
	sess, err := c.Store.UpdateSession(ctx, id, fn)
	if err != nil {
		c.written(start, id, nil)
		return nil, err
	}
	c.written(start, id, sess)
	return sess, nil
}

func (c *CachedStore) DeleteSession(ctx context.Context, id string) error {
	start := c.currentEpoch()
	err := c.Store.DeleteSession(ctx, id)
	c.written(start, id, nil)
	return err
}

// PurgeSessions purges the underlying store and clears the whole cache.
func (c *CachedStore) PurgeSessions(ctx context.Context, before time.Time) (int64, error) {
	n, err := c.Store.PurgeSessions(ctx, before)
	c.mu.Lock()
	c.epoch++
	c.sessions.Purge()
	c.mu.Unlock()
	return n, err
}
