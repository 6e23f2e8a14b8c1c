package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/porchlite/porchlite/internal/core/ports"
)

// AuthHandler exposes the session operations.
type AuthHandler struct {
	app ports.Coordinator
}

func NewAuthHandler(app ports.Coordinator) *AuthHandler {
	return &AuthHandler{app: app}
}

// SignIn authenticates with email and password.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.app.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session, true))
}

// SignUp registers a new account and signs it in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      201   {object}  sessionResponse
// @Success      202   {object}  sessionResponse  "Account awaits confirmation"
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.app.SignUp(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if session == nil {
		return c.JSON(http.StatusAccepted, sessionResponse{})
	}
	return c.JSON(http.StatusCreated, toSessionResponse(session, true))
}

// SignOut ends the current session.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.app.SignOut(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh exchanges the refresh token for a new session.
//
// @Summary      Refresh session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	session, err := h.app.RefreshSession(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session, true))
}

// Session returns the current auth state without tokens.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Security     BearerAuth
// @Router       /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	auth := h.app.Snapshot().Auth
	resp := toSessionResponse(auth.Session, false)
	resp.Loading = auth.Loading
	resp.Initialized = auth.Initialized
	return c.JSON(http.StatusOK, resp)
}
