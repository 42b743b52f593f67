package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/middleware"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/utils"
	"github.com/piresc/vidcredit/services/auth"
)

// AuthHandler handles HTTP requests for account operations
type AuthHandler struct {
	cfg    *models.Config
	authUC auth.AuthUC
}

// NewAuthHandler creates a new auth HTTP handler
func NewAuthHandler(cfg *models.Config, authUC auth.AuthUC) *AuthHandler {
	return &AuthHandler{cfg: cfg, authUC: authUC}
}

// RegisterRoutes registers the auth routes. protect guards the routes that
// need a session.
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, protect echo.MiddlewareFunc) {
	group := e.Group("/api/v1/auth")
	group.POST("/register", h.Register)
	group.POST("/login", h.Login)
	group.POST("/logout", h.Logout, protect)
	group.GET("/me", h.Me, protect)
}

// Register creates an account
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	user, err := h.authUC.Register(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, "Failed to register", err)
	}
	return utils.SuccessResponse(c, http.StatusCreated, "User registered", user)
}

// Login issues a token and sets it as an HTTP-only cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	resp, err := h.authUC.Login(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, "Failed to login", err)
	}

	c.SetCookie(h.sessionCookie(resp.Token, time.Unix(resp.ExpiresAt, 0)))
	return utils.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}

// Logout revokes the current token and clears the cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := c.Get(middleware.ContextToken).(string)
	expiresAt, _ := c.Get(middleware.ContextTokenExp).(time.Time)

	if err := h.authUC.Logout(c.Request().Context(), token, expiresAt); err != nil {
		return h.errorResponse(c, "Failed to logout", err)
	}

	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return utils.SuccessResponse(c, http.StatusOK, "Logged out", nil)
}

// Me returns the authenticated account
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authUC.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.errorResponse(c, "Failed to get user", err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "User retrieved", user)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.cfg.JWT.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.App.Environment != "local",
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	return cookie
}

func (h *AuthHandler) errorResponse(c echo.Context, msg string, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return utils.BadRequestResponse(c, "Email, full name and a password of at least 8 characters are required")
	case errors.Is(err, auth.ErrEmailTaken):
		return utils.ConflictResponse(c, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return utils.UnauthorizedResponse(c, "Invalid email or password")
	case errors.Is(err, auth.ErrUserNotFound):
		return utils.NotFoundResponse(c, "User not found")
	}

	logger.Error(msg, logger.String("path", c.Path()), logger.Err(err))
	return utils.InternalServerErrorResponse(c, msg)
}
