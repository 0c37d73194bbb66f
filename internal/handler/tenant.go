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
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// TenantHandler implements the admin tenant CRUD.
type TenantHandler struct {
	Logger  zerolog.Logger
	Tenants repository.TenantStore
}

func NewTenantHandler(logger zerolog.Logger, tenants repository.TenantStore) *TenantHandler {
	return &TenantHandler{Logger: logger, Tenants: tenants}
}

type tenantReq struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=255"`
}

type listResp[T any] struct {
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	Total       int `json:"total"`
	Data        []T `json:"data"`
}

// Create registers a new tenant.
func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Tenants.Create(ctx, req.Name, req.Address)
	if err != nil {
		return httperr.Internal(err)
	}
	h.Logger.Info().Uint64("id", id).Str("name", req.Name).Msg("tenant created")
	return c.JSON(http.StatusCreated, idResp{ID: id})
}

// Update rewrites a tenant's name and address.
func (h *TenantHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tenants.Update(ctx, id, req.Name, req.Address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("tenant not found")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, idResp{ID: id})
}

// GetAll lists tenants with pagination and an optional q filter. The route
// is public and sits behind the redis response cache.
func (h *TenantHandler) GetAll(c echo.Context) error {
	q := repository.TenantQuery{
		Q:           c.QueryParam("q"),
		PerPage:     queryInt(c, "perPage", 10),
		CurrentPage: queryInt(c, "currentPage", 1),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	tenants, total, err := h.Tenants.List(ctx, q)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, listResp[model.Tenant]{
		CurrentPage: q.CurrentPage,
		PerPage:     q.PerPage,
		Total:       total,
		Data:        tenants,
	})
}

// GetOne returns a single tenant by id.
func (h *TenantHandler) GetOne(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("tenant not found")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, t)
}

// Destroy removes a tenant.
func (h *TenantHandler) Destroy(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tenants.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("tenant not found")
		}
		return httperr.Internal(err)
	}
	h.Logger.Info().Uint64("id", id).Msg("tenant deleted")
	return c.JSON(http.StatusOK, idResp{ID: id})
}

// ----- shared helpers -----

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.BadRequest("invalid url param")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
