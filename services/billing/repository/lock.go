package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/database"
	"github.com/piresc/vidcredit/internal/pkg/logger"
)

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// OrderLock is a redis lock keyed by gateway order code
type OrderLock struct {
	redis *database.RedisClient
	ttl   time.Duration
}

// NewOrderLock creates an order lock whose holds expire after ttl
func NewOrderLock(redisClient *database.RedisClient, ttl time.Duration) *OrderLock {
	return &OrderLock{redis: redisClient, ttl: ttl}
}

// Acquire takes the lock for orderCode
func (l *OrderLock) Acquire(ctx context.Context, orderCode int64) (func(), bool, error) {
	key := fmt.Sprintf(constants.KeyOrderLock, orderCode)
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// the caller's context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.redis.Client, []string{key}, token).Err(); err != nil {
			logger.Warn("Failed to release order lock",
				logger.Int64("order_code", orderCode),
				logger.Err(err))
		}
	}
	return release, true, nil
}
