package auth

import (
	"context"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/models"
)

// AuthUC handles sign-up, login and logout
//
//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/vidcredit/services/auth AuthUC
type AuthUC interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, token string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*models.User, error)
}
