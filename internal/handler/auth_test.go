package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/utils"
)

func TestRegister(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/register",
		`{"firstName":"Jo","lastName":"Doe","email":"jo@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, rec)["id"])

	access := findCookie(t, rec, "accessToken")
	refresh := findCookie(t, rec, "refreshToken")
	for _, c := range []*http.Cookie{access, refresh} {
		assert.Len(t, strings.Split(c.Value, "."), 3, "cookie %q should hold a JWT", c.Name)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	}
	assert.Greater(t, refresh.MaxAge, access.MaxAge)

	u, err := app.users.GetByEmail(context.Background(), "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "customer", u.Role.String())
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "password123"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "jo@example.com")

	rec := app.do(http.MethodPost, "/auth/register",
		`{"firstName":"Jo","lastName":"Doe","email":"jo@example.com","password":"password123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email is already in use", firstError(t, rec)["message"])
	assert.Equal(t, 1, app.users.count())
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/register",
		`{"firstName":"Jo","lastName":"Doe","email":"not-an-email","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	paths := map[string]bool{}
	for _, raw := range decodeBody(t, rec)["errors"].([]any) {
		fe := raw.(map[string]any)
		assert.Equal(t, "field", fe["type"])
		assert.Equal(t, "body", fe["location"])
		paths[fe["path"].(string)] = true
	}
	assert.True(t, paths["email"])
	assert.True(t, paths["password"])
	assert.Equal(t, 0, app.users.count())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "jo@example.com")

	wrongPassword := app.do(http.MethodPost, "/auth/login",
		`{"email":"jo@example.com","password":"password124"}`)
	unknownEmail := app.do(http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"password123"}`)

	require.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	require.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String(),
		"login failures must not reveal whether the email exists")
	assert.Equal(t, "email or password doesn't match", firstError(t, wrongPassword)["message"])
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "jo@example.com")

	rec := app.do(http.MethodPost, "/auth/login",
		`{"email":"jo@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, rec)["id"])
	findCookie(t, rec, "accessToken")
	findCookie(t, rec, "refreshToken")
}

func TestSelf(t *testing.T) {
	app := newTestApp(t)
	access, _ := app.register(t, "jo@example.com")

	rec := app.do(http.MethodGet, "/auth/self", "", access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["id"])
	assert.Equal(t, "jo@example.com", body["email"])
	assert.Equal(t, "customer", body["role"])
	assert.NotContains(t, rec.Body.String(), "$2", "no bcrypt hash may appear in the response")
}

func TestSelfBearerHeader(t *testing.T) {
	app := newTestApp(t)
	access, _ := app.register(t, "jo@example.com")

	anon := app.do(http.MethodGet, "/auth/self", "")
	require.Equal(t, http.StatusUnauthorized, anon.Code)

	rec := app.doBearer(http.MethodGet, "/auth/self", access.Value)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRefreshRotatesToken(t *testing.T) {
	app := newTestApp(t)
	_, refresh := app.register(t, "jo@example.com")

	rec := app.do(http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := findCookie(t, rec, "refreshToken")

	assert.NotEqual(t, refresh.Value, rotated.Value)
	assert.NotEqual(t, jtiOf(t, refresh.Value), jtiOf(t, rotated.Value),
		"rotation must bind the new token to a new row")
	assert.Equal(t, 1, app.tokens.count(), "rotation must not leak rows")

	// The pre-rotation token is now revoked.
	replay := app.do(http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusUnauthorized, replay.Code)
	assert.Equal(t, "refresh token revoked", firstError(t, replay)["message"])

	// The rotated one still works.
	again := app.do(http.MethodPost, "/auth/refresh", "", rotated)
	require.Equal(t, http.StatusOK, again.Code)
}

func TestRefreshWithoutCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	access, refresh := app.register(t, "jo@example.com")

	rec := app.do(http.MethodPost, "/auth/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Equal(t, 0, app.tokens.count())

	// Both cookies are expired on the response.
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := findCookie(t, rec, name)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	// The refresh token died with its row.
	replay := app.do(http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	access, refresh := app.register(t, "jo@example.com")

	first := app.do(http.MethodPost, "/auth/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, first.Code)

	// The row is gone but the signed cookie is still structurally valid;
	// a second logout succeeds and clears cookies again.
	second := app.do(http.MethodPost, "/auth/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
}

func TestJWKSEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/.well-known/jwks.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	keys := body["keys"].([]any)
	require.Len(t, keys, 1)
	key := keys[0].(map[string]any)
	assert.Equal(t, "RSA", key["kty"])
	assert.Equal(t, "RS256", key["alg"])
	assert.Equal(t, "sig", key["use"])
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

// jtiOf pulls the jti claim out of a signed token without verifying it.
func jtiOf(t *testing.T, signed string) string {
	t.Helper()
	tok, _, err := jwt.NewParser().ParseUnverified(signed, jwt.MapClaims{})
	require.NoError(t, err)
	jti, _ := tok.Claims.(jwt.MapClaims)["jti"].(string)
	require.NotEmpty(t, jti)
	return jti
}
