package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/token"
)

// JWKS serves the published key set. Verifiers (including this service's
// own authentication middleware) fetch it to validate RS256 signatures
// without ever holding the private key.
func JWKS(keyPair *token.KeyPair) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, keyPair.JWKS())
	}
}
