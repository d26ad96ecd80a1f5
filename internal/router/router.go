// Package router assembles the Echo server and its route table.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/maternal-health/internal/handler"
	"github.com/iliyamo/maternal-health/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the connectivity check used by the mobile client, the liveness and
// readiness probes, and the stored prediction documents.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, p *handler.PredictionsHandler) {
	e.GET("/", h.Root)
	e.GET("/healthz", handler.Health)
	e.GET("/ready", h.Ready)
	e.GET("/predictions/:file", p.Get)
}

// RegisterAuth registers all authentication-related routes.  Register and
// login are exposed both at the root, where the mobile client calls them,
// and under /v1/auth.  limit guards the two credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, protect []echo.MiddlewareFunc, limit echo.MiddlewareFunc) {
	e.POST("/register", a.Register, limit)
	e.POST("/login", a.Login, limit)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	// Logout takes either a refresh_token body or a bearer token, so it
	// sits outside the protected group.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1", protect...)
	auth.GET("/me", a.Me)
}

// Protect returns the middleware chain for authenticated routes: a valid
// access token carrying the user or admin role.  With auth disabled the
// chain is empty and handlers see no caller identity.
func Protect(secret string, disabled bool, log *zap.Logger) []echo.MiddlewareFunc {
	if disabled {
		return nil
	}
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(secret, log),
		middleware.RequireRole("user", "admin"),
	}
}
