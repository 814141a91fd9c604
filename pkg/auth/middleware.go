package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/meyeras/library-management-system/pkg/models"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate extracts and validates the bearer token from the Authorization
// header. If valid, it loads the user and adds it to the context. If not
// authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token := bearerToken(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		// Verify the user still exists
		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("Invalid user")
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)

		return next(c)
	}
}

// RequireAdmin returns middleware that rejects non-admin users. Must be used
// after Authenticate.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return errcodes.Unauthorized("Authentication required")
		}

		if !user.IsAdmin {
			return errcodes.Forbidden("This action")
		}

		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// CurrentUser retrieves the authenticated user from the Echo context.
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok
}

// CurrentIdentity retrieves the authorization claims for the authenticated
// user.
func CurrentIdentity(c echo.Context) (models.Identity, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return models.Identity{}, false
	}
	return user.Identity(), true
}
