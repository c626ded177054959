package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// permCacheTTL bounds how long a stale permission set can be served after a
// role change.
const permCacheTTL = 30 * time.Second

// PermissionSource resolves a user's permission names through their role.
// *repository.RoleRepo satisfies it; tests inject fakes.
type PermissionSource interface {
	PermissionNamesForUser(ctx context.Context, userID uint64) ([]string, error)
}

// Guard bundles the permission source with an optional Redis cache. A nil
// client disables caching; every check then hits the database.
type Guard struct {
	Perms PermissionSource
	RDB   *redis.Client
}

// Require returns the permission gate for one capability. GET requests pass
// with either view_{capability} or edit_{capability}; every other verb needs
// edit_{capability}. A user with no role, an empty permission set, or any
// lookup failure is denied: the gate fails closed and never lets an error
// escape as an allow.
func (g *Guard) Require(capability string) echo.MiddlewareFunc {
	view := "view_" + capability
	edit := "edit_" + capability
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := UserFromContext(c)
			if !ok {
				return deny(c)
			}
			names, err := g.permissionNames(c.Request().Context(), u.ID)
			if err != nil {
				log.Printf("permission lookup failed for user %d: %v", u.ID, err)
				return deny(c)
			}
			allowed := false
			for _, n := range names {
				if n == edit || (c.Request().Method == http.MethodGet && n == view) {
					allowed = true
					break
				}
			}
			if !allowed {
				return deny(c)
			}
			return next(c)
		}
	}
}

func deny(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{
		"error": "forbidden", "message": "insufficient permissions"})
}

// permissionNames loads a user's permission set, consulting the Redis cache
// first. Cache failures fall through to the database; only a database
// failure propagates (and denies).
func (g *Guard) permissionNames(ctx context.Context, userID uint64) ([]string, error) {
	key := permCacheKey(userID)
	if g.RDB != nil {
		if raw, err := g.RDB.Get(ctx, key).Result(); err == nil {
			var names []string
			if json.Unmarshal([]byte(raw), &names) == nil {
				return names, nil
			}
		}
	}
	names, err := g.Perms.PermissionNamesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if g.RDB != nil {
		if raw, err := json.Marshal(names); err == nil {
			_ = g.RDB.Set(ctx, key, raw, permCacheTTL).Err()
		}
	}
	return names, nil
}

func permCacheKey(userID uint64) string {
	return "perms:" + strconv.FormatUint(userID, 10)
}
