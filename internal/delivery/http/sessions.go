package http

import (
	"sync"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/usecase"
)

// SessionRegistry holds live reconciliation sessions keyed by id. Sessions
// are in-memory only: abandoning one (or letting it expire) has no side
// effects, because nothing before Commit touches a store.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*usecase.ReconciliationSession
	ttl      time.Duration
	stop     chan struct{}
}

// NewSessionRegistry creates a registry that expires idle sessions after ttl
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	r := &SessionRegistry{
		sessions: make(map[string]*usecase.ReconciliationSession),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	go r.sweep()

	return r
}

// Put registers a session under its id
func (r *SessionRegistry) Put(session *usecase.ReconciliationSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Get returns the session for the id, or ErrSessionNotFound
func (r *SessionRegistry) Get(id string) (*usecase.ReconciliationSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Delete abandons the session. Always clean: sessions carry no external state.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Close stops the sweeper goroutine
func (r *SessionRegistry) Close() {
	close(r.stop)
}

// sweep drops sessions older than the TTL until Close is called
func (r *SessionRegistry) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.ttl)
			r.mu.Lock()
			for id, session := range r.sessions {
				if session.CreatedAt.Before(cutoff) {
					delete(r.sessions, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
