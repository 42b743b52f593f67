package health

import (
	"context"
	"errors"

	"github.com/piresc/vidcredit/internal/pkg/database"
	"github.com/piresc/vidcredit/internal/pkg/nats"
	"github.com/piresc/vidcredit/internal/pkg/nsq"
)

// HealthChecker defines the interface for health checking dependencies
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker
type CheckerFunc func(ctx context.Context) error

// CheckHealth calls f
func (f CheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// NewPostgresHealthChecker pings the database pool
func NewPostgresHealthChecker(client *database.PostgresClient) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		return client.GetDB().PingContext(ctx)
	})
}

// NewRedisHealthChecker pings redis
func NewRedisHealthChecker(client *database.RedisClient) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		return client.Client.Ping(ctx).Err()
	})
}

// NewNATSHealthChecker reports whether the NATS connection is up
func NewNATSHealthChecker(client *nats.Client) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		if !client.IsConnected() {
			return errors.New("NATS not connected")
		}
		return nil
	})
}

// NewNSQHealthChecker pings nsqd through the producer connection
func NewNSQHealthChecker(producer *nsq.Producer) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if producer == nil {
			return nil
		}
		return producer.Ping()
	})
}
