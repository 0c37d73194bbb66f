package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/model"
)

// CanAccess returns a middleware that enforces that the authenticated role
// is a member of the allowed set. It is a pure function of (role, allowed
// set); no I/O happens here. It assumes an authentication middleware has
// already attached the AuthContext, and rejects with 403 otherwise.
func CanAccess(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, ok := AuthFrom(c)
			if !ok || !allowed[auth.Role] {
				return httperr.Authorization("forbidden")
			}
			return next(c)
		}
	}
}
