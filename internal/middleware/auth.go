// Package middleware provides the request-processing chain shared by the
// protected routes: credential checks, role gates and the login rate
// limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/auth"
)

// CurrentUserKey is the context key under which Authenticate stores the
// resolved user. Handlers read it back via handler.CurrentUser.
const CurrentUserKey = "current_user"

// Authenticate validates the Bearer credential on every request and stores
// the resolved user in the context. The full check runs per request:
// signature, expiry, stored token_version, force-logout flag and active
// flag, so revocation takes effect on the very next call.
func Authenticate(sessions *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			u, err := sessions.Authorize(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(CurrentUserKey, u)
			return next(c)
		}
	}
}
