package memory

import (
	"context"
	"sync"
	"time"
)

type session struct {
	contactShared bool
	expiresAt     time.Time
}

// SessionRepo holds per-user conversation flags until they expire.
type SessionRepo struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]session
}

func NewSessionRepo(ttl time.Duration) *SessionRepo {
	return &SessionRepo{ttl: ttl, now: time.Now, sessions: make(map[int64]session)}
}

// WithClock replaces the time source, used by tests.
func (r *SessionRepo) WithClock(now func() time.Time) *SessionRepo {
	r.now = now
	return r
}

func (r *SessionRepo) ContactShared(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return false, nil
	}
	if r.ttl > 0 && !r.now().Before(s.expiresAt) {
		delete(r.sessions, userID)
		return false, nil
	}
	return s.contactShared, nil
}

func (r *SessionRepo) MarkContactShared(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = session{contactShared: true, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *SessionRepo) End(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *SessionRepo) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if !now.Before(s.expiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
