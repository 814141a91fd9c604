package users

import (
	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
	}

	// Registration is open.
	e.POST("/register", h.register)

	users := e.Group("/users")
	users.Use(authMiddleware.Authenticate)

	// Listing all users is admin-only; retrieval and update enforce
	// self-or-admin in the handler.
	users.GET("", h.list, authMiddleware.RequireAdmin)
	users.GET("/:id", h.retrieve)
	users.PUT("/:id", h.update)

	// Promoting or demoting is admin-only and kept off the self-update
	// payload entirely.
	users.PUT("/:id/admin", h.setAdmin, authMiddleware.RequireAdmin)

	return userService
}
