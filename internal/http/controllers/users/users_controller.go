// Package users contiene el controller de /api/tenants/{tenantId}/users.
package users

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	tenantdto "github.com/dropDatabas3/tenantadmin/internal/http/dto/tenants"
	dto "github.com/dropDatabas3/tenantadmin/internal/http/dto/users"
	httperrors "github.com/dropDatabas3/tenantadmin/internal/http/errors"
	"github.com/dropDatabas3/tenantadmin/internal/http/helpers"
	svc "github.com/dropDatabas3/tenantadmin/internal/http/services/users"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/go-chi/chi/v5"
)

const (
	MsgNotFound = "User not found"
	MsgDeleted  = "User deleted"
)

// UsersController maneja los usuarios de un tenant.
type UsersController struct {
	service svc.Service
}

func NewUsersController(service svc.Service) *UsersController {
	return &UsersController{service: service}
}

// Create maneja POST /api/tenants/{tenantId}/users
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := chi.URLParam(r, "tenantId")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Create"), logger.TenantID(tenantID))

	var req dto.UserDTO
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := helpers.RequireFields(req.Missing()); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	u, err := c.service.Create(ctx, tenantID, req)
	if err != nil {
		log.Warn("create failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}

	w.Header().Set("Location", "/api/tenants/"+tenantID+"/users/"+u.ID)
	helpers.WriteJSON(w, http.StatusCreated, svc.ToResponse(u))
}

// List maneja GET /api/tenants/{tenantId}/users?skip=&take=
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := chi.URLParam(r, "tenantId")

	skip, err1 := queryInt(r, "skip")
	take, err2 := queryInt(r, "take")
	if err := errors.Join(err1, err2); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	list, err := c.service.List(ctx, tenantID, skip, take)
	if err != nil {
		logger.From(ctx).Warn("list failed", logger.Layer("controller"), logger.TenantID(tenantID), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	resp := dto.ListUsersResponse{Users: make([]dto.UserResponse, 0, len(list)), Total: len(list)}
	for _, u := range list {
		resp.Users = append(resp.Users, svc.ToResponse(u))
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Get maneja GET /api/tenants/{tenantId}/users/{userId}
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	u, err := c.service.Get(r.Context(), chi.URLParam(r, "tenantId"), chi.URLParam(r, "userId"))
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, svc.ToResponse(u))
}

// Update maneja PUT /api/tenants/{tenantId}/users/{userId}
func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, userID := chi.URLParam(r, "tenantId"), chi.URLParam(r, "userId")

	var req dto.UserUpdateDTO
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	u, err := c.service.Update(ctx, tenantID, userID, req)
	if err != nil {
		logger.From(ctx).Warn("update failed", logger.Layer("controller"), logger.TenantID(tenantID), logger.UserID(userID), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, svc.ToResponse(u))
}

// Delete maneja DELETE /api/tenants/{tenantId}/users/{userId}
func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Delete(r.Context(), chi.URLParam(r, "tenantId"), chi.URLParam(r, "userId")); err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, tenantdto.MessageResponse{Message: MsgDeleted})
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, svc.ErrNotFound):
		return httperrors.ErrNotFound.WithMessage(MsgNotFound)
	case errors.Is(err, svc.ErrInvalidInput):
		return httperrors.ErrBadRequest.WithDetail(strings.TrimPrefix(err.Error(), svc.ErrInvalidInput.Error()+": "))
	case errors.Is(err, svc.ErrEmailDuplicate):
		return httperrors.ErrConflict.WithDetail("email already exists")
	case repository.IsConcurrencyConflict(err):
		return httperrors.ErrConflict.WithDetail("user was modified concurrently")
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
