package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/token"
)

const testRefreshSecret = "test-refresh-secret"

// testApp wires the full HTTP surface against in-memory stores, with a real
// key discovery endpoint served from a second httptest server.
type testApp struct {
	e      *echo.Echo
	users  *memUserStore
	tokens *memTokenStore
	issuer *token.Issuer
}

// passthrough stands in for the rate limiter and response cache, which are
// redis-backed and out of scope here.
func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	kp, err := token.GenerateKeyPair("test-kid", 2048)
	require.NoError(t, err)
	jwksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(kp.JWKS()))
	}))
	t.Cleanup(jwksSrv.Close)
	provider := token.NewJWKSProvider(jwksSrv.URL)

	users := newMemUserStore()
	tenants := newMemTenantStore()
	tokenRows := newMemTokenStore()

	logger := zerolog.Nop()
	issuer := token.NewIssuer(kp, []byte(testRefreshSecret), "auth-service", time.Hour, 365*24*time.Hour, tokenRows)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = httperr.NewHTTPErrorHandler(logger)

	auth := handler.NewAuthHandler(logger, users, issuer, "localhost", 4)
	tenantH := handler.NewTenantHandler(logger, tenants)
	userH := handler.NewUserHandler(logger, users, 4)

	router.RegisterRoutes(e, kp)
	router.RegisterAuth(e, auth, provider, []byte(testRefreshSecret), tokenRows, passthrough)
	router.RegisterTenants(e, tenantH, provider, passthrough)
	router.RegisterUsers(e, userH, provider)

	return &testApp{e: e, users: users, tokens: tokenRows, issuer: issuer}
}

// do runs one request through the app. Cookies returned by earlier responses
// are attached by passing them in.
func (a *testApp) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// doBearer runs a request authenticated via the Authorization header.
func (a *testApp) doBearer(method, path, accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// register runs a registration and returns the issued cookies.
func (a *testApp) register(t *testing.T, email string) (access, refresh *http.Cookie) {
	t.Helper()
	rec := a.do(http.MethodPost, "/auth/register",
		`{"firstName":"Jo","lastName":"Doe","email":"`+email+`","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return findCookie(t, rec, middleware.AccessTokenCookie), findCookie(t, rec, middleware.RefreshTokenCookie)
}

// loginAsAdmin seeds an admin user and returns its access token cookie.
func (a *testApp) loginAsAdmin(t *testing.T) *http.Cookie {
	t.Helper()
	_, err := a.users.Create(context.Background(), repository.CreateUserParams{
		FirstName: "Ada", LastName: "Admin",
		Email: "admin@example.com", Password: "password123",
		Role: model.RoleAdmin,
	}, 4)
	require.NoError(t, err)

	rec := a.do(http.MethodPost, "/auth/login",
		`{"email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return findCookie(t, rec, middleware.AccessTokenCookie)
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func firstError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decodeBody(t, rec)
	errs, ok := body["errors"].([]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())
	require.NotEmpty(t, errs)
	return errs[0].(map[string]any)
}
