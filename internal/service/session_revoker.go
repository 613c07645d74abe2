package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prperemyshlev/starterkit-auth/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRevoker records, per user, the moment all previously issued
// access tokens stopped being valid. The marker lives as long as an access token can.
type RedisSessionRevoker struct {
	redis *database.Redis
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionRevoker creates a revoker. ttl should equal the access token lifetime.
func NewSessionRevoker(redis *database.Redis, ttl time.Duration) *RedisSessionRevoker {
	return &RedisSessionRevoker{redis: redis, ttl: ttl, now: time.Now}
}

func revokedKey(userID string) string {
	return fmt.Sprintf("revoked:user:%s", userID)
}

// RevokeUser invalidates every access token issued to the user up to now
func (s *RedisSessionRevoker) RevokeUser(ctx context.Context, userID string) error {
	cutoff := s.now().UnixMicro()
	err := s.redis.Client.Set(ctx, revokedKey(userID), strconv.FormatInt(cutoff, 10), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token issued at issuedAt predates the user's revocation cutoff
func (s *RedisSessionRevoker) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	value, err := s.redis.Client.Get(ctx, revokedKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt revocation marker for user %s: %w", userID, err)
	}

	return issuedAt.UnixMicro() <= cutoff, nil
}
