package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/porchlite/porchlite/internal/core/ports"
)

// ReadinessHandler exposes the readiness signal and derived permissions.
type ReadinessHandler struct {
	app ports.Coordinator
}

func NewReadinessHandler(app ports.Coordinator) *ReadinessHandler {
	return &ReadinessHandler{app: app}
}

// Readiness returns the gating signal.
//
// @Summary      Readiness signal
// @Tags         readiness
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /readiness [get]
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	snap := h.app.Snapshot()
	return c.JSON(http.StatusOK, readinessResponse{
		Readiness:         snap.Readiness,
		UserID:            snap.Auth.UserID(),
		CurrentPropertyID: snap.Properties.CurrentPropertyID,
	})
}

// Permissions returns the permission set for the current property.
//
// @Summary      Current permissions
// @Tags         readiness
// @Produce      json
// @Success      200  {object}  permissionsResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /permissions [get]
func (h *ReadinessHandler) Permissions(c echo.Context) error {
	return c.JSON(http.StatusOK, toPermissionsResponse(h.app.Snapshot().Permissions))
}

// Can reports whether a single capability is granted. Unknown names are
// reported as not allowed.
//
// @Summary      Check a capability
// @Tags         readiness
// @Produce      json
// @Param        capability  path      string  true  "Capability name"
// @Success      200         {object}  capabilityResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /permissions/{capability} [get]
func (h *ReadinessHandler) Can(c echo.Context) error {
	capability := c.Param("capability")
	return c.JSON(http.StatusOK, capabilityResponse{
		Capability: capability,
		Allowed:    h.app.Can(capability),
	})
}
