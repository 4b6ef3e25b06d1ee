package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Registry holds one Controller per active user session, expired after a
// period of inactivity. Session IDs come from the authentication cookie, so
// no state is ever shared across users.
type Registry struct {
	engine    Engine
	threshold float64
	cache     *gocache.Cache
	mu        sync.Mutex
}

// NewRegistry creates a registry whose controllers start at the given default
// threshold. ttl bounds how long an idle session's state is kept.
func NewRegistry(engine Engine, threshold float64, ttl time.Duration) *Registry {
	return &Registry{
		engine:    engine,
		threshold: threshold,
		cache:     gocache.New(ttl, ttl/2),
	}
}

// Get returns the controller for the session ID, creating one on first use.
// Each access resets the session's expiration.
func (r *Registry) Get(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.cache.Get(sessionID); found {
		ctrl := v.(*Controller)
		r.cache.SetDefault(sessionID, ctrl)
		return ctrl
	}
	ctrl := NewController(r.engine, r.threshold)
	r.cache.SetDefault(sessionID, ctrl)
	return ctrl
}

// Drop removes a session's state, used at logout.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionID)
}
