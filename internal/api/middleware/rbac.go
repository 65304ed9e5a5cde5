package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// RequireRole rejects principals ranked below min. Must run after Auth.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := c.Get(PrincipalKey).(domain.Principal)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authentication claims"})
			}
			if !p.Role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
