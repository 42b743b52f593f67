package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/piresc/vidcredit/internal/pkg/database"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/auth"
	"github.com/piresc/vidcredit/services/auth/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var userCols = []string{"id", "email", "fullname", "password_hash", "credit", "is_active", "created_at", "updated_at"}

func TestCreateUser(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewUserRepository(db)
	now := time.Now().UTC()
	user := &models.User{ID: "user-1", Email: "alice@example.com", FullName: "Alice", PasswordHash: "hash", CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("user-1", "alice@example.com", "Alice", "hash", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.CreateUser(context.Background(), user))
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.CreateUser(context.Background(), &models.User{ID: "user-1"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestGetUserByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("user-1", "alice@example.com", "Alice", "hash", 25, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("bob@example.com").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(25), user.Credit)
	assert.Equal(t, "hash", user.PasswordHash)

	_, err = repo.GetUserByEmail(context.Background(), "bob@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestGetUserByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("user-1", "alice@example.com", "Alice", "hash", 0, true, now, now))

	user, err := repo.GetUserByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, &database.RedisClient{Client: client}
}

func TestTokenBlacklist(t *testing.T) {
	mr, client := setupRedis(t)
	blacklist := repository.NewTokenBlacklist(client)
	ctx := context.Background()

	revoked, err := blacklist.IsBlacklisted(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Revoke(ctx, "token-1", time.Minute))

	revoked, err = blacklist.IsBlacklisted(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsBlacklisted(ctx, "token-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = blacklist.IsBlacklisted(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_ExpiredTokenIgnored(t *testing.T) {
	mr, client := setupRedis(t)
	blacklist := repository.NewTokenBlacklist(client)

	require.NoError(t, blacklist.Revoke(context.Background(), "token-1", -time.Second))
	assert.Empty(t, mr.Keys())
}
