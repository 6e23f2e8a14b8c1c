package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CapabilityChecker answers capability questions for the current property.
type CapabilityChecker interface {
	Can(capability string) bool
}

// RequireCapability enforces that every listed capability is granted.
func RequireCapability(checker CapabilityChecker, capabilities ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, capability := range capabilities {
				if !checker.Can(capability) {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
			}
			return next(c)
		}
	}
}
