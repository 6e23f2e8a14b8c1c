package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// SnapshotSource exposes the coordinator's derived state.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// RequireReady lets a request through only once readiness is ready, and
// injects the current property as "property". When Auth ran first, the token
// subject must match the signed-in user.
func RequireReady(src SnapshotSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := src.Snapshot()

			switch snap.Readiness {
			case domain.ReadinessUnauthenticated:
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			case domain.ReadinessNeedsPropertySelection:
				return echo.NewHTTPError(http.StatusConflict, "property selection required")
			case domain.ReadinessReady:
			default:
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is still loading")
			}

			if sub, ok := c.Get("user_id").(string); ok && sub != snap.Auth.UserID() {
				return echo.NewHTTPError(http.StatusUnauthorized, "token does not match the active session")
			}

			prop := snap.Properties.Current()
			if prop == nil {
				return echo.NewHTTPError(http.StatusConflict, "property selection required")
			}
			c.Set("property", prop)

			return next(c)
		}
	}
}

// RequireSession rejects requests unless a session is active and the token
// subject set by Auth belongs to it. Unlike RequireReady it does not wait
// for properties.
func RequireSession(src SnapshotSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, _ := c.Get("user_id").(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			active := src.Snapshot().Auth.UserID()
			if active == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			if sub != active {
				return echo.NewHTTPError(http.StatusUnauthorized, "token does not match the active session")
			}
			return next(c)
		}
	}
}
