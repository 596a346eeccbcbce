package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
)

func newTestRepo(t *testing.T, ttl time.Duration) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cli.Close() })
	return NewSessionRepo(cli, ttl), mr
}

func TestGetContactSharedKey(t *testing.T) {
	if got := getContactSharedKey(42); got != "sessions:contact_shared:42" {
		t.Fatalf("unexpected key %q", got)
	}
	if getContactSharedKey(1) == getContactSharedKey(2) {
		t.Fatal("keys for different users must differ")
	}
}

func TestSessionRepo_ContactSharedUnset(t *testing.T) {
	repo, _ := newTestRepo(t, time.Hour)

	shared, err := repo.ContactShared(context.Background(), 42)
	if err != nil {
		t.Fatalf("ContactShared: %v", err)
	}
	if shared {
		t.Fatal("expected unset flag to read as not shared")
	}
}

func TestSessionRepo_MarkSetsKeyWithTTL(t *testing.T) {
	ttl := 2 * time.Hour
	repo, mr := newTestRepo(t, ttl)
	ctx := context.Background()

	if err := repo.MarkContactShared(ctx, 42); err != nil {
		t.Fatalf("MarkContactShared: %v", err)
	}
	shared, err := repo.ContactShared(ctx, 42)
	if err != nil {
		t.Fatalf("ContactShared: %v", err)
	}
	if !shared {
		t.Fatal("expected flag to be set")
	}

	key := getContactSharedKey(42)
	if got, _ := mr.Get(key); got != "1" {
		t.Fatalf("expected stored value 1, got %q", got)
	}
	if got := mr.TTL(key); got != ttl {
		t.Fatalf("expected ttl %v, got %v", ttl, got)
	}
}

func TestSessionRepo_FlagExpires(t *testing.T) {
	ttl := time.Minute
	repo, mr := newTestRepo(t, ttl)
	ctx := context.Background()

	if err := repo.MarkContactShared(ctx, 7); err != nil {
		t.Fatalf("MarkContactShared: %v", err)
	}
	mr.FastForward(ttl + time.Second)

	shared, err := repo.ContactShared(ctx, 7)
	if err != nil {
		t.Fatalf("ContactShared: %v", err)
	}
	if shared {
		t.Fatal("expected flag to expire after ttl")
	}
}

func TestSessionRepo_EndClearsFlag(t *testing.T) {
	repo, mr := newTestRepo(t, time.Hour)
	ctx := context.Background()

	if err := repo.MarkContactShared(ctx, 9); err != nil {
		t.Fatalf("MarkContactShared: %v", err)
	}
	if err := repo.End(ctx, 9); err != nil {
		t.Fatalf("End: %v", err)
	}
	if mr.Exists(getContactSharedKey(9)) {
		t.Fatal("expected key to be removed")
	}
	shared, err := repo.ContactShared(ctx, 9)
	if err != nil {
		t.Fatalf("ContactShared: %v", err)
	}
	if shared {
		t.Fatal("expected flag cleared after End")
	}
}

func TestSessionRepo_ServerDown(t *testing.T) {
	repo, mr := newTestRepo(t, time.Hour)
	mr.Close()

	if _, err := repo.ContactShared(context.Background(), 1); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}
