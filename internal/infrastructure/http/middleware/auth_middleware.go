package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/medical-scribe/pkg/jwt"
)

const (
	// UserIDKey is the echo context key holding the authenticated user's uuid.UUID
	UserIDKey = "user_id"
	// ClaimsKey is the echo context key holding the verified *jwt.Claims
	ClaimsKey = "claims"
)

// TokenVerifier validates bearer tokens; *jwt.Manager implements it
type TokenVerifier interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// EchoAuth returns an Echo middleware that validates the JWT and sets
// "user_id" (uuid.UUID) and "claims" (*jwt.Claims) into Echo context
func EchoAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := verifier.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)

			return next(c)
		}
	}
}

// UserID returns the authenticated user's id set by EchoAuth
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// extractToken reads the Authorization header, then the access_token cookie
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
