package usecase

import (
	"context"
	"fmt"
	"sync"

	"subscriber-relay-bot/internal/domain"
)

// UserRegistry is the working copy of the persisted registry. Every change is
// written through to the store before the caller sees the new number.
type UserRegistry struct {
	mu    sync.Mutex
	store domain.RegistryStore
	reg   domain.Registry
}

// LoadUserRegistry reads the store once; the result lives for the whole process.
func LoadUserRegistry(ctx context.Context, store domain.RegistryStore) (*UserRegistry, error) {
	reg, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if reg.Assignments == nil {
		reg = domain.NewRegistry()
	}
	reg.NextSequence = domain.NextAfter(reg.Assignments)
	return &UserRegistry{store: store, reg: reg}, nil
}

// EnsureRegistered returns the user's number, assigning and persisting the next
// one on first contact. created reports whether a new number was handed out.
// On a persist error the assignment is undone.
func (r *UserRegistry) EnsureRegistered(ctx context.Context, userID int64) (seq int, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.reg.Assignments[userID]; ok {
		return n, false, nil
	}

	seq = r.reg.NextSequence
	r.reg.Assignments[userID] = seq
	r.reg.NextSequence++

	if err := r.store.Persist(ctx, r.reg.Clone()); err != nil {
		delete(r.reg.Assignments, userID)
		r.reg.NextSequence--
		return 0, false, fmt.Errorf("persist registry: %w", err)
	}
	return seq, true, nil
}

func (r *UserRegistry) Sequence(userID int64) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.reg.Assignments[userID]
	return n, ok
}

// Count is the number of distinct registered users.
func (r *UserRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reg.Assignments)
}

func (r *UserRegistry) Snapshot() domain.Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.Clone()
}
