package auth

import (
	"context"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/models"
)

// UserRepo stores account credentials
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/vidcredit/services/auth UserRepo,TokenBlacklist
type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenBlacklist remembers revoked tokens until they would have expired anyway
type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}
