// Package middleware provides the request authentication and authorization
// chain: access token verification against the published key set, role
// gating, refresh token validation against the symmetric secret and the
// token store, and redis-backed rate limiting.
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/model"
)

// authContextKey is the echo context key under which the AuthContext is
// stored for the duration of one request.
const authContextKey = "auth"

// AuthContext is the per-request authenticated state derived from a
// verified token. TokenID is non-zero only when the context was produced by
// the refresh validation path, where it carries the persisted row id of the
// presented refresh token.
type AuthContext struct {
	Sub     string
	Role    model.Role
	TokenID uint64
}

// SetAuth attaches the AuthContext to the request.
func SetAuth(c echo.Context, auth AuthContext) {
	c.Set(authContextKey, auth)
}

// AuthFrom returns the AuthContext attached by an authentication
// middleware, or false when the request never passed one.
func AuthFrom(c echo.Context) (AuthContext, bool) {
	auth, ok := c.Get(authContextKey).(AuthContext)
	return auth, ok
}
