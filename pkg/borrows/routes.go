package borrows

import (
	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/auth"
	"github.com/meyeras/library-management-system/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all lending routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	borrowService := NewService(db, cfg)

	h := &handler{
		borrowService: borrowService,
	}

	borrows := e.Group("/borrows")
	borrows.Use(authMiddleware.Authenticate)

	borrows.POST("", h.borrow)
	borrows.POST("/return", h.returnBook)

	// Listing lives under the user it belongs to; the handler enforces
	// self-or-admin.
	e.GET("/users/:id/borrows", h.listForUser, authMiddleware.Authenticate)

	return borrowService
}
