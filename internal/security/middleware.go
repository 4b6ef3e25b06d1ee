package security

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// identityContextKey is the echo context key the middleware stores the
// authenticated identity under.
const identityContextKey = "melonguard_identity"

// RequireAuth rejects requests without a valid login session and attaches
// the identity to the request context for handlers.
func (m *Manager) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := m.CurrentIdentity(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		c.Set(identityContextKey, identity)
		return next(c)
	}
}

// IdentityFrom returns the identity attached by RequireAuth, or nil when the
// request went through an unprotected route.
func IdentityFrom(c echo.Context) *Identity {
	identity, _ := c.Get(identityContextKey).(*Identity)
	return identity
}
