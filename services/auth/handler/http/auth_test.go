package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/middleware"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/auth"
	"github.com/piresc/vidcredit/services/auth/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *models.Config {
	return &models.Config{
		App: models.AppConfig{Environment: "local"},
		JWT: models.JWTConfig{Secret: "test-secret", Expiration: 60, CookieName: "token"},
	}
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "invalid input", err: auth.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "email taken", err: auth.ErrEmailTaken, wantStatus: http.StatusConflict},
		{name: "store failure", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockUC := mocks.NewMockAuthUC(ctrl)
			handler := NewAuthHandler(testConfig(), mockUC)

			var user *models.User
			if tt.err == nil {
				user = &models.User{ID: "user-1", Email: "alice@example.com"}
			}
			mockUC.EXPECT().
				Register(gomock.Any(), models.RegisterRequest{Email: "alice@example.com", FullName: "Alice", Password: "correct horse"}).
				Return(user, tt.err)

			c, rec := newContext(http.MethodPost, "/api/v1/auth/register",
				`{"email":"alice@example.com","fullname":"Alice","password":"correct horse"}`)

			require.NoError(t, handler.Register(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotContains(t, rec.Body.String(), "password_hash")
		})
	}
}

func TestAuthHandler_LoginSetsCookie(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUC := mocks.NewMockAuthUC(ctrl)
	handler := NewAuthHandler(testConfig(), mockUC)
	expiresAt := time.Now().Add(time.Hour).Unix()

	mockUC.EXPECT().
		Login(gomock.Any(), models.LoginRequest{Email: "alice@example.com", Password: "correct horse"}).
		Return(&models.AuthResponse{Token: "signed-token", ExpiresAt: expiresAt, User: &models.User{ID: "user-1"}}, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"correct horse"}`)

	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec, "token")
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUC := mocks.NewMockAuthUC(ctrl)
	handler := NewAuthHandler(testConfig(), mockUC)
	mockUC.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, auth.ErrInvalidCredentials)

	c, rec := newContext(http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"nope"}`)

	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, findCookie(rec, "token"))
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUC := mocks.NewMockAuthUC(ctrl)
	handler := NewAuthHandler(testConfig(), mockUC)
	expiresAt := time.Now().Add(time.Hour)

	mockUC.EXPECT().Logout(gomock.Any(), "signed-token", expiresAt).Return(nil)

	c, rec := newContext(http.MethodPost, "/api/v1/auth/logout", "")
	c.Set(middleware.ContextToken, "signed-token")
	c.Set(middleware.ContextTokenExp, expiresAt)

	require.NoError(t, handler.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec, "token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthHandler_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUC := mocks.NewMockAuthUC(ctrl)
	handler := NewAuthHandler(testConfig(), mockUC)

	mockUC.EXPECT().Me(gomock.Any(), "user-1").Return(nil, auth.ErrUserNotFound)

	c, rec := newContext(http.MethodGet, "/api/v1/auth/me", "")
	c.Set(middleware.ContextUserID, "user-1")

	require.NoError(t, handler.Me(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthHandler_RoutesRequireSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testConfig()
	handler := NewAuthHandler(cfg, mocks.NewMockAuthUC(ctrl))
	e := echo.New()
	handler.RegisterRoutes(e, middleware.JWTAuthMiddleware(cfg.JWT, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
