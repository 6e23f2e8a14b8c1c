package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/porchlite/porchlite/internal/core/ports"
)

// RoleWriter updates profile roles.
type RoleWriter interface {
	SetRole(ctx context.Context, userID, role string) error
}

// AdminHandler manages user roles.
type AdminHandler struct {
	roles RoleWriter
	app   ports.Coordinator
}

func NewAdminHandler(roles RoleWriter, app ports.Coordinator) *AdminHandler {
	return &AdminHandler{roles: roles, app: app}
}

// SetRole assigns a profile role and drops the cached role of that user.
//
// @Summary      Set a user's role
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string          true  "User id"
// @Param        body  body  setRoleRequest  true  "Role"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users/{id}/role [put]
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID := c.Param("id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	if err := h.roles.SetRole(c.Request().Context(), userID, req.Role); err != nil {
		return err
	}
	h.app.InvalidatePermissions(userID)
	return c.NoContent(http.StatusNoContent)
}
