package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// SessionRepo stores conversation flags as expiring redis keys.
type SessionRepo struct {
	cli *redis.Client
	ttl time.Duration
}

func NewSessionRepo(cli *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{cli: cli, ttl: ttl}
}

func (s *SessionRepo) ContactShared(ctx context.Context, userID int64) (bool, error) {
	_, err := s.cli.WithContext(ctx).Get(getContactSharedKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session %d: %w", userID, err)
	}
	return true, nil
}

func (s *SessionRepo) MarkContactShared(ctx context.Context, userID int64) error {
	return s.cli.WithContext(ctx).Set(getContactSharedKey(userID), 1, s.ttl).Err()
}

func (s *SessionRepo) End(ctx context.Context, userID int64) error {
	return s.cli.WithContext(ctx).Del(getContactSharedKey(userID)).Err()
}

func getContactSharedKey(userID int64) string {
	return fmt.Sprintf("sessions:contact_shared:%d", userID)
}
