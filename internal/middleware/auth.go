// Package middleware provides the request-level gates applied before
// handlers: cookie authentication, permission checks and rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/config"
	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/utils"
)

// userContextKey is where CookieAuth stores the resolved user.
const userContextKey = "auth_user"

// UserSource resolves an authenticated subject id to a full user record.
// *repository.UserRepo satisfies it; tests inject in-memory fakes.
type UserSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// CookieAuth returns the authentication gate. It reads the access-token
// cookie, verifies signature, expiry and token type, loads the user and
// stores it in the request context. Any failure ends the request with 401;
// the handler never runs. Routes that should skip the gate are registered
// outside the guarded groups.
func CookieAuth(cfg config.Config, users UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(utils.AccessCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "unauthorized", "message": "missing access token"})
			}
			payload, err := utils.VerifyToken(cfg.AccessSecret, cookie.Value, utils.TypeAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "unauthorized", "message": "invalid or expired token"})
			}
			u, err := users.GetByID(c.Request().Context(), payload.Sub)
			if err != nil {
				// deleted user or storage failure: fail closed
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "unauthorized", "message": "invalid or expired token"})
			}
			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// UserFromContext returns the user attached by CookieAuth, if any.
func UserFromContext(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}

// SetContextUser attaches a user to the context the way CookieAuth does.
// Exported for handler tests.
func SetContextUser(c echo.Context, u model.User) {
	c.Set(userContextKey, u)
}
