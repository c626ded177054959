// Package router registers the HTTP routes. Public routes live outside the
// guarded groups; everything else passes the cookie authentication gate, and
// sensitive groups additionally carry a capability check.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fightcard/fightcard-api/internal/config"
	"github.com/fightcard/fightcard-api/internal/handler"
	"github.com/fightcard/fightcard-api/internal/middleware"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Cfg      config.Config
	RateCfg  config.RateLimitConfig
	RDB      *redis.Client
	Users    middleware.UserSource
	Perms    middleware.PermissionSource
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Role     *handler.RoleHandler
	Perm     *handler.PermissionHandler
	Fighter  *handler.FighterHandler
	MatchUp  *handler.MatchUpHandler
	Order    *handler.OrderHandler
}

// Register wires all routes onto the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", handler.Health)

	// Public auth operations. Login carries the brute-force limiter;
	// refresh authenticates itself via the refresh cookie.
	e.POST("/auth/register", d.Auth.Register)
	e.POST("/auth/login", d.Auth.Login, middleware.RateLimit(d.RateCfg, d.RDB))
	e.POST("/auth/refresh", d.Auth.Refresh)

	authGate := middleware.CookieAuth(d.Cfg, d.Users)
	guard := &middleware.Guard{Perms: d.Perms, RDB: d.RDB}

	// Session endpoints behind the authentication gate only.
	auth := e.Group("/auth", authGate)
	auth.GET("", d.Auth.Me)
	auth.POST("/signout", d.Auth.SignOut)

	// User management: authentication plus the Users capability on every
	// verb, so view_Users grants the GETs and edit_Users the rest.
	users := e.Group("/users", authGate, guard.Require("Users"))
	users.GET("", d.User.List)
	users.GET("/:id", d.User.Get)
	users.POST("", d.User.Create)
	users.PATCH("/:id", d.User.Update)
	users.DELETE("/:id", d.User.Delete)
	users.POST("/upload/:id", d.User.UploadAvatar)

	// Role and permission management share the Roles capability.
	roles := e.Group("/roles", authGate, guard.Require("Roles"))
	roles.GET("", d.Role.List)
	roles.GET("/:id", d.Role.Get)
	roles.POST("", d.Role.Create)
	roles.PATCH("/:id", d.Role.Update)
	roles.DELETE("/:id", d.Role.Delete)

	perms := e.Group("/permissions", authGate, guard.Require("Roles"))
	perms.GET("", d.Perm.List)
	perms.POST("", d.Perm.Create)

	// Fighters need a session but no capability tag: default-allow for
	// permission-agnostic resources.
	fighters := e.Group("/fighters", authGate)
	fighters.GET("", d.Fighter.List)
	fighters.GET("/:id", d.Fighter.Get)
	fighters.POST("", d.Fighter.Create)
	fighters.PATCH("/:id", d.Fighter.Update)
	fighters.DELETE("/:id", d.Fighter.Delete)
	fighters.POST("/upload/:id", d.Fighter.UploadImage)

	// Matchups follow the fighters model: session required, no capability.
	matchups := e.Group("/matchups", authGate)
	matchups.GET("", d.MatchUp.List)
	matchups.GET("/:id", d.MatchUp.Get)
	matchups.POST("", d.MatchUp.Create)
	matchups.PATCH("/:id", d.MatchUp.Update)
	matchups.DELETE("/:id", d.MatchUp.Delete)

	// Reporting endpoints behind the Orders capability.
	orders := e.Group("/orders", authGate, guard.Require("Orders"))
	orders.GET("", d.Order.List)
	orders.POST("/export", d.Order.Export)
	orders.GET("/chart", d.Order.Chart)
}
