package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/pkg/metrics"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// SessionRegistry keeps the live tour sessions by id.
type SessionRegistry struct {
	tours *TourService
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*TourSession
}

// NewSessionRegistry creates a new SessionRegistry. ttl <= 0 selects DefaultSessionTTL.
func NewSessionRegistry(tours *TourService, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{tours: tours, ttl: ttl, sessions: make(map[string]*TourSession)}
}

// Create starts a session with a fresh id.
func (r *SessionRegistry) Create(renderer ports.SceneRenderer) *TourSession {
	s := r.tours.NewSession(uuid.NewString(), renderer)
	r.put(s)
	return s
}

// Claim starts a session under a caller-chosen id. It fails with
// domain.ErrSessionInUse while another session holds the id; the live
// session is left untouched.
func (r *SessionRegistry) Claim(id string, renderer ports.SceneRenderer) (*TourSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionInUse, id)
	}
	s := r.tours.NewSession(id, renderer)
	r.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return s, nil
}

func (r *SessionRegistry) put(s *TourSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// Get returns the session for id.
func (r *SessionRegistry) Get(id string) (*TourSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Remove ends a session. It reports whether the session existed.
func (r *SessionRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return ok
}

// Release removes s only if it still holds its id, so a closing connection
// cannot end a session that has since replaced it.
func (r *SessionRegistry) Release(s *TourSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.ID()] != s {
		return false
	}
	delete(r.sessions, s.ID())
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return true
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many.
func (r *SessionRegistry) Sweep() int {
	now := r.tours.opts.Clock()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastSeen()) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Info("idle tour sessions evicted", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
