// Package middleware holds the session guard: it validates the presented
// access token and attaches the resolved user to the request context
// before downstream handlers run.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scorewire/cricket-api/internal/logging"
	"github.com/scorewire/cricket-api/internal/repo"
	"github.com/scorewire/cricket-api/internal/tokens"
)

// UserContextKey is where the guard stores the resolved *models.User.
const UserContextKey = "user"

type SessionGuard struct {
	Issuer *tokens.Issuer
	Repo   *repo.GormRepo
}

func NewSessionGuard(issuer *tokens.Issuer, r *repo.GormRepo) *SessionGuard {
	return &SessionGuard{Issuer: issuer, Repo: r}
}

// bearerToken takes the access token from the cookie first, then from the
// Authorization header (second space-separated field).
func bearerToken(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.Split(c.Request().Header.Get("Authorization"), " ")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func (g *SessionGuard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "session_guard")

		token := bearerToken(c)
		if token == "" {
			l.Warn("auth_failed", "reason", "token missing")
			return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
		}

		claims, err := g.Issuer.ParseAccess(token)
		if err != nil {
			l.Warn("auth_failed", "reason", "invalid token")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		// Covers accounts deleted after the token was issued.
		user, err := g.Repo.FindUserByUserID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				l.Warn("auth_failed", "reason", "user not found", "user_id", claims.Subject)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			return err
		}

		c.Set(UserContextKey, user)
		return next(c)
	}
}
