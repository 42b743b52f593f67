package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/vidcredit/internal/pkg/jwt"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/utils"
)

// Context keys set by the JWT middleware
const (
	ContextUserID   = "user_id"
	ContextToken    = "token"
	ContextTokenExp = "token_exp"
)

// TokenBlacklist reports whether a token was revoked by logout
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// JWTAuthMiddleware authenticates with a Bearer header or the session cookie
func JWTAuthMiddleware(config models.JWTConfig, blacklist TokenBlacklist) echo.MiddlewareFunc {
	return jwtAuth(config, blacklist, false)
}

// WebSocketAuthMiddleware also accepts a token query parameter, since browsers
// cannot set headers on websocket upgrades
func WebSocketAuthMiddleware(config models.JWTConfig, blacklist TokenBlacklist) echo.MiddlewareFunc {
	return jwtAuth(config, blacklist, true)
}

func jwtAuth(config models.JWTConfig, blacklist TokenBlacklist, allowQuery bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, msg := extractToken(c, config.CookieName, allowQuery)
			if tokenString == "" {
				return utils.UnauthorizedResponse(c, msg)
			}

			claims, err := jwtpkg.ValidateToken(tokenString, config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			if blacklist != nil {
				revoked, err := blacklist.IsBlacklisted(c.Request().Context(), tokenString)
				if err != nil {
					logger.Error("Failed to check token blacklist", logger.Err(err))
					return utils.InternalServerErrorResponse(c, "Authentication unavailable")
				}
				if revoked {
					return utils.UnauthorizedResponse(c, "Token has been revoked")
				}
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextToken, tokenString)
			if claims.ExpiresAt != nil {
				c.Set(ContextTokenExp, claims.ExpiresAt.Time)
			}

			return next(c)
		}
	}
}

func extractToken(c echo.Context, cookieName string, allowQuery bool) (string, string) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", "Invalid authorization format"
		}
		return parts[1], ""
	}

	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, ""
		}
	}

	if allowQuery {
		if token := c.QueryParam("token"); token != "" {
			return token, ""
		}
	}

	return "", "Authorization header is required"
}

// UserID returns the authenticated user id, or "" on unauthenticated routes
func UserID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(string); ok {
		return v
	}
	return ""
}
