package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/model"
)

// RequireRole gates a route group to users whose role is in the allowed
// set. It assumes Authenticate already ran and stored the user.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := c.Get(CurrentUserKey).(model.User)
			if !ok || !allowed[u.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireAdmin is shorthand for the admin-only route groups.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
