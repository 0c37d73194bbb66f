package middleware

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// RefreshTokenCookie is the cookie carrying the refresh token. Refresh
// tokens are cookie-only; they are never accepted from headers.
const RefreshTokenCookie = "refreshToken"

// ValidateRefreshToken returns a middleware authenticating a refresh-token-
// bearing request. It verifies the HS256 signature and expiry, then
// cross-checks that the row named by the embedded jti still exists and
// belongs to the token's subject. The store check is what enforces
// revocation: a structurally valid, unexpired, correctly signed token dies
// the moment its row is deleted by a logout or rotation.
func ValidateRefreshToken(secret []byte, store repository.RefreshTokenStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, err := parseRefreshCookie(c, secret)
			if err != nil {
				return err
			}

			row, err := store.GetByID(c.Request().Context(), auth.TokenID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return httperr.Authentication("refresh token revoked")
				}
				return httperr.Internal(err)
			}
			if strconv.FormatUint(row.UserID, 10) != auth.Sub {
				return httperr.Authentication("refresh token revoked")
			}

			SetAuth(c, auth)
			return next(c)
		}
	}
}

// ParseRefreshToken returns a middleware that verifies only signature and
// expiry, without the store lookup. Logout uses it so a token whose row is
// already gone can still clear its cookies; the subsequent delete is
// idempotent either way.
func ParseRefreshToken(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, err := parseRefreshCookie(c, secret)
			if err != nil {
				return err
			}
			SetAuth(c, auth)
			return next(c)
		}
	}
}

func parseRefreshCookie(c echo.Context, secret []byte) (AuthContext, error) {
	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return AuthContext{}, httperr.Authentication("missing refresh token")
	}

	tok, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return AuthContext{}, httperr.Authentication("invalid refresh token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return AuthContext{}, httperr.Authentication("invalid refresh token")
	}

	sub, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	role, roleErr := model.ParseRole(roleStr)
	id, idErr := strconv.ParseUint(jti, 10, 64)
	if sub == "" || roleErr != nil || idErr != nil || id == 0 {
		return AuthContext{}, httperr.Authentication("invalid refresh token")
	}

	return AuthContext{Sub: sub, Role: role, TokenID: id}, nil
}
