package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldwork/backoffice-api/internal/api/middleware"
	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the Auth middleware. Its
// absence means the route was wired without Auth; reject with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := c.Get(middleware.PrincipalKey).(domain.Principal)
	if !ok || p.ID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}
