package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	queue_publisher "github.com/iliyamo/auth-service/internal/service"
	"github.com/iliyamo/auth-service/internal/token"
	"github.com/iliyamo/auth-service/internal/utils"
)

// credentialMismatch is the single message for every login failure. The
// same text is returned whether the email is unknown or the password is
// wrong, so responses cannot be used to enumerate accounts.
const credentialMismatch = "email or password doesn't match"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Logger       zerolog.Logger
	Users        repository.UserStore
	Tokens       *token.Issuer
	CookieDomain string
	BcryptCost   int
}

func NewAuthHandler(logger zerolog.Logger, users repository.UserStore, tokens *token.Issuer, cookieDomain string, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		Logger:       logger,
		Users:        users,
		Tokens:       tokens,
		CookieDomain: cookieDomain,
		BcryptCost:   bcryptCost,
	}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type idResp struct {
	ID uint64 `json:"id"`
}

// Register creates a user with the customer role and signs them in
// immediately: both tokens are minted and set as cookies on the 201.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.Logger.Debug().
		Str("email", req.Email).
		Msg("new request to register user")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.CreateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      model.RoleCustomer,
	}, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.Conflict("email is already in use")
		}
		return httperr.Internal(err)
	}
	h.Logger.Info().Uint64("id", uid).Msg("user registered")

	if err := h.issueTokenPair(ctx, c, uid, model.RoleCustomer); err != nil {
		return err
	}

	event := queue.UserRegisteredEvent{
		UserID:       uid,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         string(model.RoleCustomer),
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishUserRegistered(pubCtx, event)
	}()

	return c.JSON(http.StatusCreated, idResp{ID: uid})
}

// Login verifies credentials and mints a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.BadRequest(credentialMismatch)
		}
		return httperr.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return httperr.BadRequest(credentialMismatch)
	}

	if err := h.issueTokenPair(ctx, c, u.ID, u.Role); err != nil {
		return err
	}
	h.Logger.Info().Uint64("id", u.ID).Msg("user logged in")

	return c.JSON(http.StatusOK, idResp{ID: u.ID})
}

// Self returns the authenticated user's record, password hash excluded by
// the model's json mapping.
func (h *AuthHandler) Self(c echo.Context) error {
	auth, ok := middleware.AuthFrom(c)
	if !ok {
		return httperr.Authentication("unauthenticated")
	}
	uid, err := strconv.ParseUint(auth.Sub, 10, 64)
	if err != nil {
		return httperr.Authentication("invalid subject")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("user not found")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, u)
}

// Refresh rotates the token pair. The old refresh row is deleted and a new
// one created on every call: a refresh token is single-use for refreshing,
// and replaying it after this call fails at the validation middleware.
func (h *AuthHandler) Refresh(c echo.Context) error {
	auth, ok := middleware.AuthFrom(c)
	if !ok || auth.TokenID == 0 {
		return httperr.Authentication("unauthenticated")
	}
	uid, err := strconv.ParseUint(auth.Sub, 10, 64)
	if err != nil {
		return httperr.Authentication("invalid subject")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The role comes from the user row, not the old token, so a role
	// change takes effect on the next rotation.
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.Authentication("user no longer exists")
		}
		return httperr.Internal(err)
	}

	access, err := h.Tokens.GenerateAccessToken(token.AccessPayload{Sub: auth.Sub, Role: u.Role})
	if err != nil {
		return httperr.Internal(err)
	}
	newID, err := h.Tokens.PersistRefreshToken(ctx, uid)
	if err != nil {
		return httperr.Internal(err)
	}
	if err := h.Tokens.DeleteRefreshToken(ctx, auth.TokenID); err != nil {
		return httperr.Internal(err)
	}
	refresh, err := h.Tokens.GenerateRefreshToken(token.RefreshPayload{Sub: auth.Sub, Role: u.Role, ID: newID})
	if err != nil {
		return httperr.Internal(err)
	}

	h.setAuthCookies(c, access, refresh)
	h.Logger.Debug().Uint64("id", uid).Uint64("token_id", newID).Msg("refresh token rotated")

	return c.JSON(http.StatusOK, idResp{ID: uid})
}

// Logout deletes the refresh row named by the presented token and clears
// both cookies. Deleting an already-deleted row is a no-op, so logout is
// idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth, ok := middleware.AuthFrom(c)
	if !ok || auth.TokenID == 0 {
		return httperr.Authentication("unauthenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteRefreshToken(ctx, auth.TokenID); err != nil {
		return httperr.Internal(err)
	}
	h.clearAuthCookies(c)
	h.Logger.Info().Str("sub", auth.Sub).Uint64("token_id", auth.TokenID).Msg("user logged out")

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// issueTokenPair mints both tokens for the user and sets them as cookies.
// Sign, persist, then bind the refresh token to the persisted row id.
func (h *AuthHandler) issueTokenPair(ctx context.Context, c echo.Context, uid uint64, role model.Role) error {
	sub := strconv.FormatUint(uid, 10)

	access, err := h.Tokens.GenerateAccessToken(token.AccessPayload{Sub: sub, Role: role})
	if err != nil {
		return httperr.Internal(err)
	}
	rowID, err := h.Tokens.PersistRefreshToken(ctx, uid)
	if err != nil {
		return httperr.Internal(err)
	}
	refresh, err := h.Tokens.GenerateRefreshToken(token.RefreshPayload{Sub: sub, Role: role, ID: rowID})
	if err != nil {
		return httperr.Internal(err)
	}

	h.setAuthCookies(c, access, refresh)
	return nil
}

func (h *AuthHandler) setAuthCookies(c echo.Context, access, refresh string) {
	c.SetCookie(h.authCookie(middleware.AccessTokenCookie, access, int(h.Tokens.AccessTTL().Seconds())))
	c.SetCookie(h.authCookie(middleware.RefreshTokenCookie, refresh, int(h.Tokens.RefreshTTL().Seconds())))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(h.authCookie(middleware.AccessTokenCookie, "", -1))
	c.SetCookie(h.authCookie(middleware.RefreshTokenCookie, "", -1))
}

func (h *AuthHandler) authCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   h.CookieDomain,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
