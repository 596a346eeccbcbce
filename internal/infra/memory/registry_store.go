package memory

import (
	"context"
	"sync"

	"subscriber-relay-bot/internal/domain"
)

// RegistryStore keeps the last persisted snapshot in memory.
type RegistryStore struct {
	mu       sync.RWMutex
	snapshot domain.Registry
	saved    bool
	persists int
	failWith error
}

func NewRegistryStore() *RegistryStore {
	return &RegistryStore{snapshot: domain.NewRegistry()}
}

// FailWith makes every following Persist return err. Pass nil to recover.
func (r *RegistryStore) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *RegistryStore) Load(_ context.Context) (domain.Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.saved {
		return domain.NewRegistry(), nil
	}
	return r.snapshot.Clone(), nil
}

func (r *RegistryStore) Persist(_ context.Context, reg domain.Registry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.snapshot = reg.Clone()
	r.saved = true
	r.persists++
	return nil
}

// Persists reports how many successful writes happened.
func (r *RegistryStore) Persists() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persists
}
