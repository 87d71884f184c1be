package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/mirror"
)

type session struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one Store per browser session. Stores idle for longer
// than the configured TTL are evicted; their state lives on in the mirror
// and is restored on the next request.
type Registry struct {
	api     ProfileAPI
	factory mirror.Factory
	cfg     config.Session
	now     func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(api ProfileAPI, factory mirror.Factory, cfg config.Session) *Registry {
	return &Registry{
		api:      api,
		factory:  factory,
		cfg:      cfg,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// Get returns the session's store, creating and restoring it on first use.
// Concurrent first requests for one session share a single restore.
// A store whose mirror could not be fully restored is still returned.
func (r *Registry) Get(c context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("failed getting store with error=%w", inErrors.ErrEmptySession)
	}

	if store, ok := r.touch(sessionID); ok {
		return store, nil
	}

	value, _, _ := r.group.Do(sessionID, func() (any, error) {
		if store, ok := r.touch(sessionID); ok {
			return store, nil
		}

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "Registry Get").
			Str(log.KeySessionID, sessionID).
			Logger()
		logger.Info().Msg("creating session store")

		store := NewStore(r.api, r.factory(sessionID), WithMaxQuantity(r.cfg.MaxQuantity))
		if err := store.Restore(logger.WithContext(context.WithoutCancel(c))); err != nil {
			logger.Warn().Err(err).Msg("continuing with partially restored session")
		}

		r.mu.Lock()
		r.sessions[sessionID] = &session{store: store, lastSeen: r.now()}
		r.mu.Unlock()
		logger.Info().Msg("created session store")

		return store, nil
	})

	return value.(*Store), nil
}

func (r *Registry) touch(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.store, true
}

// Drop forgets the session's store. The mirror is left to the store's own Logout.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops every store idle for longer than the idle TTL and returns how
// many went. Stores still waiting on the profile service are kept.
func (r *Registry) Evict(c context.Context) int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Registry Evict").
		Str(log.KeyProcess, "evicting idle sessions").
		Logger()

	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(-r.cfg.IdleTTL)
	evicted := 0
	for id, s := range r.sessions {
		if s.lastSeen.After(deadline) || s.store.Busy() {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	metrics.EvictedSessions.Add(float64(evicted))
	if evicted > 0 {
		logger.Info().Int("evicted", evicted).Int("remaining", len(r.sessions)).Msg("evicted idle sessions")
	}
	return evicted
}

// Run evicts idle stores every sweep interval until c is done.
func (r *Registry) Run(c context.Context) {
	if r.cfg.IdleTTL <= 0 || r.cfg.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			return
		case <-ticker.C:
			r.Evict(c)
		}
	}
}
