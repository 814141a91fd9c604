package books

import (
	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all catalog routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	books := e.Group("/books")
	books.Use(authMiddleware.Authenticate)

	// Browsing is open to any authenticated user; mutating the catalog is
	// admin-only.
	books.GET("", h.list)
	books.GET("/:id", h.retrieve)
	books.POST("", h.create, authMiddleware.RequireAdmin)
	books.PUT("/:id", h.update, authMiddleware.RequireAdmin)
	books.DELETE("/:id", h.delete, authMiddleware.RequireAdmin)

	return bookService
}
