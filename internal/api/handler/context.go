package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcounsel/counsel-admin/internal/api/middleware"
	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

// ctxClaims extracts the identity injected by the Auth middleware. A token
// whose role is not a known account role is structurally valid but
// operationally unusable, so it is rejected with 401.
func ctxClaims(c echo.Context) (username, role string, err error) {
	username, _ = c.Get(middleware.CtxUsername).(string)
	role, _ = c.Get(middleware.CtxRole).(string)
	if username == "" || !domain.ValidRole(role) {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return username, role, nil
}
