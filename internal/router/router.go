// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/token"
)

// RegisterRoutes registers the unauthenticated service routes: the health
// check and the key discovery endpoint.
func RegisterRoutes(e *echo.Echo, keyPair *token.KeyPair) {
	e.GET("/healthz", handler.Health)
	e.GET("/.well-known/jwks.json", handler.JWKS(keyPair))
}

// RegisterAuth registers the auth endpoints and their middleware chains.
// The credential-bearing routes (register, login, refresh) sit behind the
// rate limiter; self requires an access token; refresh and logout require a
// refresh token cookie, with refresh additionally checking the token store
// so a revoked token cannot rotate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, provider *token.JWKSProvider, refreshSecret []byte, store repository.RefreshTokenStore, limiter echo.MiddlewareFunc) {
	authn := middleware.Authenticate(provider)

	g := e.Group("/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.GET("/self", a.Self, authn)
	g.POST("/refresh", a.Refresh, limiter, middleware.ValidateRefreshToken(refreshSecret, store))
	g.POST("/logout", a.Logout, authn, middleware.ParseRefreshToken(refreshSecret))
}

// RegisterTenants registers the tenant CRUD. Everything except the listing
// is admin-only; the listing is public and served through the response
// cache.
func RegisterTenants(e *echo.Echo, h *handler.TenantHandler, provider *token.JWKSProvider, cache echo.MiddlewareFunc) {
	authn := middleware.Authenticate(provider)
	adminOnly := middleware.CanAccess(model.RoleAdmin)

	g := e.Group("/tenants")
	g.POST("", h.Create, authn, adminOnly)
	g.GET("", h.GetAll, cache)
	g.GET("/:id", h.GetOne, authn, adminOnly)
	g.PATCH("/:id", h.Update, authn, adminOnly)
	g.DELETE("/:id", h.Destroy, authn, adminOnly)
}

// RegisterUsers registers the user CRUD; every route is admin-only.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, provider *token.JWKSProvider) {
	authn := middleware.Authenticate(provider)
	adminOnly := middleware.CanAccess(model.RoleAdmin)

	g := e.Group("/users", authn, adminOnly)
	g.POST("", h.Create)
	g.GET("", h.GetAll)
	g.GET("/:id", h.GetOne)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Destroy)
}
