package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	jwtpkg "github.com/piresc/vidcredit/internal/pkg/jwt"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/utils"
	"github.com/piresc/vidcredit/services/auth"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// authUC implements auth.AuthUC
type authUC struct {
	cfg       *models.Config
	userRepo  auth.UserRepo
	blacklist auth.TokenBlacklist
	now       func() time.Time
}

// NewAuthUC creates the auth use case
func NewAuthUC(
	cfg *models.Config,
	userRepo auth.UserRepo,
	blacklist auth.TokenBlacklist,
) (auth.AuthUC, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &authUC{
		cfg:       cfg,
		userRepo:  userRepo,
		blacklist: blacklist,
		now:       time.Now,
	}, nil
}

// Register creates an account with a bcrypt password hash
func (uc *authUC) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if !utils.IsValidEmail(email) || fullName == "" || utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, auth.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User registered", logger.String("user_id", user.ID))
	return user, nil
}

// Login checks the password and issues a token
func (uc *authUC) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := uc.userRepo.GetUserByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("stored user id is not a uuid: %w", err)
	}
	token, expiresAt, err := jwtpkg.GenerateToken(userID, user.Email, uc.cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout blacklists token for the rest of its lifetime
func (uc *authUC) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return auth.ErrInvalidInput
	}
	return uc.blacklist.Revoke(ctx, token, expiresAt.Sub(uc.now()))
}

// Me returns the authenticated account
func (uc *authUC) Me(ctx context.Context, userID string) (*models.User, error) {
	return uc.userRepo.GetUserByID(ctx, userID)
}
