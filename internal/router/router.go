package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/staff-access-control/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/staff-access-control/internal/middleware" // import middleware for authentication and role enforcement
	"github.com/iliyamo/staff-access-control/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.  This
// endpoint can be used by load balancers or monitoring systems to verify
// that the service is up and running.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and their middleware.
// The login endpoint lives under /v1/auth and is rate limited; everything
// else sits behind the access guard, which re-validates the token, the
// account's active flag and (for employees) the daily login window on
// every single request.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard, loginLimit echo.MiddlewareFunc) {
	// Unauthenticated group: obtaining a token is the only operation that
	// does not require one.
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, loginLimit)

	// Protected group: the guard runs before every handler registered here.
	auth := e.Group("/v1")
	auth.Use(guard)
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
	auth.POST("/auth/change-password", a.ChangePassword)
}

// RegisterAdmin registers the account management and session audit routes.
// They are layered behind the same guard plus the finer-grained role check,
// so only admins reach them.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, s *handler.SessionHandler, guard echo.MiddlewareFunc) {
	admin := e.Group("/v1/admin")
	admin.Use(guard)
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.POST("/users", u.CreateUser)
	admin.PATCH("/users/:id/active", u.SetActive)
	admin.PATCH("/users/:id/window", u.SetWindow)
	admin.POST("/users/:id/reset-password", u.ResetPassword)

	admin.GET("/users/:id/sessions", s.ListUserSessions)
	admin.GET("/users/:id/stats", s.UserStats)
	admin.DELETE("/sessions", s.PurgeSessions)
}
