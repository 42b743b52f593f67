package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/utils"
)

// RateLimiterConfig contains configuration for the rate limiter
type RateLimiterConfig struct {
	RedisClient *redis.Client
	Resource    string        // key namespace, e.g. "deposit"
	Limit       int           // Maximum number of requests
	Period      time.Duration // Time period for the limit
}

// RateLimiterMiddleware enforces a fixed-window limit per user (or client IP
// when unauthenticated). Redis errors let the request through.
func RateLimiterMiddleware(config RateLimiterConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identifier := UserID(c)
			if identifier == "" {
				identifier = c.RealIP()
			}
			key := fmt.Sprintf(constants.KeyRateLimit, config.Resource, identifier)
			ctx := c.Request().Context()

			count, ttl, err := hit(ctx, config, key)
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request",
					logger.String("key", key),
					logger.Err(err))
				return next(c)
			}

			reset := time.Now().Add(ttl)
			remaining := config.Limit - count
			if remaining < 0 {
				remaining = 0
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if count > config.Limit {
				h.Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
				return utils.TooManyRequestsResponse(c)
			}

			return next(c)
		}
	}
}

// hit counts one request in the current window and returns the count and the window's remaining time
func hit(ctx context.Context, config RateLimiterConfig, key string) (int, time.Duration, error) {
	count, err := config.RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := config.RedisClient.Expire(ctx, key, config.Period).Err(); err != nil {
			return 0, 0, err
		}
	}
	ttl, err := config.RedisClient.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// key lost its expiry; restart the window
		if err := config.RedisClient.Expire(ctx, key, config.Period).Err(); err != nil {
			return 0, 0, err
		}
		ttl = config.Period
	}
	return int(count), ttl, nil
}
