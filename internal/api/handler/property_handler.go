package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/porchlite/porchlite/internal/core/ports"
)

// PropertyHandler exposes the property list and the current selection.
type PropertyHandler struct {
	app ports.Coordinator
}

func NewPropertyHandler(app ports.Coordinator) *PropertyHandler {
	return &PropertyHandler{app: app}
}

// List returns the properties of the signed-in user.
//
// @Summary      List properties
// @Tags         properties
// @Produce      json
// @Success      200  {object}  propertiesResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /properties [get]
func (h *PropertyHandler) List(c echo.Context) error {
	snap := h.app.Snapshot()
	if snap.Auth.Session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(http.StatusOK, toPropertiesResponse(snap.Properties))
}

// Select changes the current property. An empty id clears the selection.
//
// @Summary      Select current property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        body  body      selectPropertyRequest  true  "Property to select"
// @Success      200   {object}  propertiesResponse
// @Failure      404   {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /properties/current [put]
func (h *PropertyHandler) Select(c echo.Context) error {
	var req selectPropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.app.SelectProperty(c.Request().Context(), req.PropertyID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPropertiesResponse(h.app.Snapshot().Properties))
}

// Reload refetches the property list and waits for the result.
//
// @Summary      Reload properties
// @Tags         properties
// @Produce      json
// @Success      200  {object}  propertiesResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Security     BearerAuth
// @Router       /properties/reload [post]
func (h *PropertyHandler) Reload(c echo.Context) error {
	if err := h.app.ReloadProperties(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPropertiesResponse(h.app.Snapshot().Properties))
}

// Current is the guarded page: it only renders once readiness is ready.
//
// @Summary      Current property page
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  currentPropertyResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /app/property [get]
func (h *PropertyHandler) Current(c echo.Context) error {
	prop, err := ctxProperty(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, currentPropertyResponse{
		Property:    *prop,
		Permissions: toPermissionsResponse(h.app.Snapshot().Permissions),
	})
}
