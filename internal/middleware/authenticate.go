package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/token"
)

// AccessTokenCookie is the cookie carrying the access token for browser
// clients that do not set an Authorization header.
const AccessTokenCookie = "accessToken"

// Authenticate returns a middleware that verifies an RS256 access token
// against the key discovery provider and attaches the decoded claims to the
// request. The Authorization header wins over the cookie; a header whose
// second segment is the literal string "undefined" is treated as absent
// (browser clients serialize a missing JS value exactly that way).
func Authenticate(provider *token.JWKSProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractAccessToken(c)
			if raw == "" {
				return httperr.Authentication("missing access token")
			}

			tok, err := jwt.Parse(raw, provider.Keyfunc)
			if err != nil || !tok.Valid {
				return httperr.Authentication("invalid access token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return httperr.Authentication("invalid token claims")
			}

			sub, _ := claims["sub"].(string)
			roleStr, _ := claims["role"].(string)
			role, err := model.ParseRole(roleStr)
			if err != nil || sub == "" {
				return httperr.Authentication("invalid token claims")
			}

			SetAuth(c, AuthContext{Sub: sub, Role: role})
			return next(c)
		}
	}
}

func extractAccessToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "undefined" && parts[1] != "" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
