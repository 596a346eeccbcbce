package memory_test

import (
	"context"
	"testing"
	"time"

	"subscriber-relay-bot/internal/infra/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestSessionRepo_MarkAndExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := memory.NewSessionRepo(time.Hour).WithClock(clock.Now)
	ctx := context.Background()

	shared, err := repo.ContactShared(ctx, 1)
	if err != nil || shared {
		t.Fatalf("expected no flag for new user, got %v, %v", shared, err)
	}

	if err := repo.MarkContactShared(ctx, 1); err != nil {
		t.Fatalf("MarkContactShared: %v", err)
	}
	if shared, _ := repo.ContactShared(ctx, 1); !shared {
		t.Fatal("expected flag to be set")
	}
	if shared, _ := repo.ContactShared(ctx, 2); shared {
		t.Fatal("flag leaked to another user")
	}

	clock.t = clock.t.Add(time.Hour)
	if shared, _ := repo.ContactShared(ctx, 1); shared {
		t.Fatal("expected flag to expire after ttl")
	}
}

func TestSessionRepo_End(t *testing.T) {
	repo := memory.NewSessionRepo(time.Hour)
	ctx := context.Background()

	_ = repo.MarkContactShared(ctx, 5)
	if err := repo.End(ctx, 5); err != nil {
		t.Fatalf("End: %v", err)
	}
	if shared, _ := repo.ContactShared(ctx, 5); shared {
		t.Fatal("expected flag cleared after End")
	}
}

func TestSessionRepo_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	repo := memory.NewSessionRepo(time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	_ = repo.MarkContactShared(ctx, 1)
	clock.t = clock.t.Add(30 * time.Second)
	_ = repo.MarkContactShared(ctx, 2)
	clock.t = clock.t.Add(45 * time.Second)

	if removed := repo.Sweep(); removed != 1 {
		t.Fatalf("expected 1 expired session, got %d", removed)
	}
	if shared, _ := repo.ContactShared(ctx, 2); !shared {
		t.Fatal("expected user 2 to keep the flag")
	}
}
