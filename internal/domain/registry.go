package domain

import (
	"context"
	"sort"
)

// Registry is a snapshot of every known user and their sequence number.
type Registry struct {
	Assignments  map[int64]int
	NextSequence int
}

func NewRegistry() Registry {
	return Registry{Assignments: make(map[int64]int), NextSequence: 1}
}

// Subscribers returns the registered user ids in ascending order.
func (r Registry) Subscribers() []int64 {
	ids := make([]int64, 0, len(r.Assignments))
	for id := range r.Assignments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r Registry) Clone() Registry {
	out := Registry{Assignments: make(map[int64]int, len(r.Assignments)), NextSequence: r.NextSequence}
	for id, n := range r.Assignments {
		out.Assignments[id] = n
	}
	return out
}

// NextAfter returns 1 + the highest assigned number, or 1 when nothing is assigned.
func NextAfter(assignments map[int64]int) int {
	maxNum := 0
	for _, n := range assignments {
		if n > maxNum {
			maxNum = n
		}
	}
	return maxNum + 1
}

// RegistryStore loads and persists a Registry as a whole.
type RegistryStore interface {
	Load(ctx context.Context) (Registry, error)
	Persist(ctx context.Context, reg Registry) error
}
