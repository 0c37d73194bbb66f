package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// UserHandler implements the admin user CRUD. Unlike registration, these
// endpoints can assign any role and attach users to tenants.
type UserHandler struct {
	Logger     zerolog.Logger
	Users      repository.UserStore
	BcryptCost int
}

func NewUserHandler(logger zerolog.Logger, users repository.UserStore, bcryptCost int) *UserHandler {
	return &UserHandler{Logger: logger, Users: users, BcryptCost: bcryptCost}
}

type createUserReq struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Role      string  `json:"role" validate:"required"`
	TenantID  *uint64 `json:"tenantId"`
}

type updateUserReq struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Role      string  `json:"role" validate:"required"`
	TenantID  *uint64 `json:"tenantId"`
}

// Create inserts a user with an explicit role, typically a tenant manager.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return httperr.Validation([]httperr.FieldError{{
			Type: "field", Message: "role must be one of customer, manager, admin",
			Path: "role", Location: "body",
		}})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Users.Create(ctx, repository.CreateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      role,
		TenantID:  req.TenantID,
	}, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.Conflict("email is already in use")
		}
		return httperr.Internal(err)
	}
	h.Logger.Info().Uint64("id", id).Str("role", string(role)).Msg("user created by admin")
	return c.JSON(http.StatusCreated, idResp{ID: id})
}

// Update rewrites the administrative fields of a user. Passwords are not
// updatable through this endpoint.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return httperr.Validation([]httperr.FieldError{{
			Type: "field", Message: "role must be one of customer, manager, admin",
			Path: "role", Location: "body",
		}})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	err = h.Users.Update(ctx, id, repository.UpdateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      role,
		TenantID:  req.TenantID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return httperr.NotFound("user not found")
		case errors.Is(err, repository.ErrEmailExists):
			return httperr.Conflict("email is already in use")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, idResp{ID: id})
}

// GetAll lists users with pagination, a q filter against name/email and an
// optional role filter.
func (h *UserHandler) GetAll(c echo.Context) error {
	q := repository.UserQuery{
		Q:           c.QueryParam("q"),
		PerPage:     queryInt(c, "perPage", 10),
		CurrentPage: queryInt(c, "currentPage", 1),
	}
	if roleStr := c.QueryParam("role"); roleStr != "" {
		role, err := model.ParseRole(roleStr)
		if err != nil {
			return httperr.BadRequest("invalid role filter")
		}
		q.Role = role
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, q)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, listResp[model.User]{
		CurrentPage: q.CurrentPage,
		PerPage:     q.PerPage,
		Total:       total,
		Data:        users,
	})
}

// GetOne returns a single user by id.
func (h *UserHandler) GetOne(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("user not found")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, u)
}

// Destroy removes a user.
func (h *UserHandler) Destroy(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("user not found")
		}
		return httperr.Internal(err)
	}
	h.Logger.Info().Uint64("id", id).Msg("user deleted by admin")
	return c.JSON(http.StatusOK, idResp{ID: id})
}
