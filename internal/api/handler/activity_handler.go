package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ActivityTracker receives interaction, visibility and connectivity signals.
type ActivityTracker interface {
	RecordActivity(kind string) bool
	LastActivity() time.Time
	VisibilityChanged(ctx context.Context, visible bool)
	NetworkChanged(ctx context.Context, online bool)
}

// ActivityHandler forwards client-side signals to the activity monitor.
type ActivityHandler struct {
	tracker ActivityTracker
}

func NewActivityHandler(tracker ActivityTracker) *ActivityHandler {
	return &ActivityHandler{tracker: tracker}
}

// Record registers a user interaction.
//
// @Summary      Record activity
// @Tags         activity
// @Accept       json
// @Produce      json
// @Param        body  body      activityRequest  true  "Interaction"
// @Success      200   {object}  activityResponse
// @Failure      400   {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /activity [post]
func (h *ActivityHandler) Record(c echo.Context) error {
	var req activityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	recorded := h.tracker.RecordActivity(req.Kind)
	return c.JSON(http.StatusOK, activityResponse{Recorded: recorded, LastActivity: h.tracker.LastActivity()})
}

// Visibility reports a page visibility change.
//
// @Summary      Visibility change
// @Tags         activity
// @Accept       json
// @Param        body  body  visibilityRequest  true  "Visibility"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /activity/visibility [post]
func (h *ActivityHandler) Visibility(c echo.Context) error {
	var req visibilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	h.tracker.VisibilityChanged(context.WithoutCancel(c.Request().Context()), *req.Visible)
	return c.NoContent(http.StatusNoContent)
}

// Network reports a connectivity change.
//
// @Summary      Network change
// @Tags         activity
// @Accept       json
// @Param        body  body  networkRequest  true  "Connectivity"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /activity/network [post]
func (h *ActivityHandler) Network(c echo.Context) error {
	var req networkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	h.tracker.NetworkChanged(context.WithoutCancel(c.Request().Context()), *req.Online)
	return c.NoContent(http.StatusNoContent)
}
