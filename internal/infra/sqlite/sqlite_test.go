package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"subscriber-relay-bot/internal/domain"
)

func TestWithBusyTimeout(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"botjoy.db", "botjoy.db?_pragma=busy_timeout(5000)"},
		{"file:botjoy.db?mode=rwc", "file:botjoy.db?mode=rwc&_pragma=busy_timeout(5000)"},
		{"botjoy.db?_pragma=busy_timeout(100)", "botjoy.db?_pragma=busy_timeout(100)"},
	}
	for _, c := range cases {
		if got := withBusyTimeout(c.in); got != c.want {
			t.Fatalf("withBusyTimeout(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestOpenSetsBusyTimeout(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var timeout int
	if err := db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if timeout != busyTimeoutMS {
		t.Fatalf("expected busy_timeout %d, got %d", busyTimeoutMS, timeout)
	}
}

func TestRegistryAndFunnelWriteConcurrently(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := NewRegistryStore(db)
	if err != nil {
		t.Fatalf("NewRegistryStore: %v", err)
	}
	funnel, err := NewFunnelRepo(db)
	if err != nil {
		t.Fatalf("NewFunnelRepo: %v", err)
	}

	ctx := context.Background()
	const rounds = 20
	errs := make(chan error, 2*rounds)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reg := domain.NewRegistry()
		for i := 1; i <= rounds; i++ {
			reg.Assignments[int64(i)] = i
			reg.NextSequence = i + 1
			errs <- store.Persist(ctx, reg)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 1; i <= rounds; i++ {
			errs <- funnel.Hit(domain.StepStarted, int64(i))
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write failed: %v", err)
		}
	}
	reg, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Assignments) != rounds {
		t.Fatalf("expected %d assignments, got %d", rounds, len(reg.Assignments))
	}
}
