package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/database"
	jwtpkg "github.com/piresc/vidcredit/internal/pkg/jwt"
)

// TokenBlacklist keeps revoked token fingerprints in redis until their expiry
type TokenBlacklist struct {
	redis *database.RedisClient
}

// NewTokenBlacklist creates a redis-backed token blacklist
func NewTokenBlacklist(redisClient *database.RedisClient) *TokenBlacklist {
	return &TokenBlacklist{redis: redisClient}
}

func blacklistKey(token string) string {
	return fmt.Sprintf(constants.KeyTokenBlacklist, jwtpkg.Fingerprint(token))
}

// Revoke blacklists token for ttl. Tokens already past expiry are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.redis.Client.Set(ctx, blacklistKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether token was revoked
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return b.redis.Exists(ctx, blacklistKey(token))
}
