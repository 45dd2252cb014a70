package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/training-platform/internal/config"
	"github.com/iliyamo/training-platform/internal/handler"
	"github.com/iliyamo/training-platform/internal/middleware"
	"github.com/iliyamo/training-platform/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check,
// used by load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated session operations live
// under /v1/auth and are rate limited per client IP to slow down
// credential brute forcing; protected account endpoints live under /v1
// behind the bearer-token middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	// Session lifecycle: no existing session required.  Each handler
	// either creates or exchanges tokens.
	g := e.Group("/v1/auth")
	g.Use(middleware.RateLimit(rlCfg, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; it only accepts an access token
	// that is no longer valid.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	// Protected endpoints: every request passes the JWT middleware and a
	// role check against the closed role set before reaching a handler.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(a.Cfg.JWTSecret))
	auth.Use(middleware.RequireRole(model.Roles...))
	auth.GET("/me", a.Me)
	auth.POST("/account/change-password", a.ChangePassword)
	auth.POST("/account/change-email", a.ChangeEmail)

	// Admin surface: permission-gated rather than hard-coded to a role
	// name, so the role-to-permission mapping stays in one place.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(a.Cfg.JWTSecret))
	admin.Use(middleware.RequirePermission(model.PermManageUsers))
	admin.GET("/users", a.ListUsers)
}
