package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/auth"
)

const userColumns = `id, email, fullname, password_hash, credit, is_active, created_at, updated_at`

// UserRepo implements auth.UserRepo on Postgres
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a new account with zero credit
func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, fullname, password_hash, credit, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, true, $5, $5)
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.FullName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	user.UpdatedAt = user.CreatedAt
	return nil
}

// GetUserByEmail retrieves an active user by email
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active = true`, email)
}

// GetUserByID retrieves an active user by ID
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = true`, id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
