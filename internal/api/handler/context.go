package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// ctxProperty returns the property injected by the readiness guard. Handlers
// behind RequireReady can rely on it; anywhere else it is a programming error
// surfaced as 409.
func ctxProperty(c echo.Context) (*domain.Property, error) {
	p, _ := c.Get("property").(*domain.Property)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusConflict, "property selection required")
	}
	return p, nil
}

// bindAndValidate binds the request body into req and runs validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
