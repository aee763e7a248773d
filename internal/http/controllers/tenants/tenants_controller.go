// Package tenants contiene el controller de /api/tenants.
package tenants

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantadmin/internal/http/dto/tenants"
	httperrors "github.com/dropDatabas3/tenantadmin/internal/http/errors"
	"github.com/dropDatabas3/tenantadmin/internal/http/helpers"
	svc "github.com/dropDatabas3/tenantadmin/internal/http/services/tenants"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/users"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/go-chi/chi/v5"
)

// TenantsController maneja las rutas /api/tenants.
type TenantsController struct {
	service svc.Service
}

func NewTenantsController(service svc.Service) *TenantsController {
	return &TenantsController{service: service}
}

// Create maneja POST /api/tenants
func (c *TenantsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantsController.Create"))

	var req dto.TenantCreationDTO
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, withTenantDataMessage(err))
		return
	}
	if err := helpers.RequireFields(req.Missing()); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	t, err := c.service.Create(ctx, req)
	if err != nil {
		log.Warn("create failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err, MsgFailedToCreate))
		return
	}

	w.Header().Set("Location", "/tenants/"+t.ID)
	helpers.WriteJSON(w, http.StatusCreated, dto.MessageResponse{Message: MsgCreated})
}

// Get maneja GET /api/tenants/{tenantId}
func (c *TenantsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := tenantID(w, r)
	if !ok {
		return
	}

	t, err := c.service.Get(ctx, id)
	if err != nil {
		logger.From(ctx).Warn("get failed", logger.Layer("controller"), logger.TenantID(id), logger.Err(err))
		httperrors.WriteError(w, mapError(err, MsgNotFound))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, svc.ToResponse(t))
}

// Update maneja PUT /api/tenants/{tenantId}
func (c *TenantsController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantsController.Update"))

	id, ok := tenantID(w, r)
	if !ok {
		return
	}
	var req dto.TenantUpdateDTO
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, withTenantDataMessage(err))
		return
	}
	if err := helpers.RequireFields(req.Missing()); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	t, err := c.service.Update(ctx, id, req)
	if err != nil {
		log.Warn("update failed", logger.TenantID(id), logger.Err(err))
		httperrors.WriteError(w, mapError(err, MsgFailedToUpdate))
		return
	}
	if t == nil {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithMessage(MsgNotFound))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: MsgUpdated})
}

// Delete maneja DELETE /api/tenants/{tenantId}
func (c *TenantsController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := tenantID(w, r)
	if !ok {
		return
	}
	if err := c.service.Delete(ctx, id); err != nil {
		logger.From(ctx).Warn("delete failed", logger.Layer("controller"), logger.TenantID(id), logger.Err(err))
		httperrors.WriteError(w, mapError(err, MsgFailedToDelete))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: MsgDeleted})
}

func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "tenantId"))
	if id == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage(MsgTenantIDMissing))
		return "", false
	}
	return id, true
}

// withTenantDataMessage usa el mensaje de body requerido para un body vacío.
func withTenantDataMessage(err error) error {
	var appErr *httperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == httperrors.ErrInvalidJSON.Code {
		return appErr.WithMessage(MsgTenantDataRequired)
	}
	return err
}

// mapError traduce errores del service. fallback es el mensaje de los 500.
func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, svc.ErrNotFound):
		return httperrors.ErrNotFound.WithMessage(MsgNotFound)
	case errors.Is(err, svc.ErrInvalidInput), errors.Is(err, users.ErrInvalidInput):
		return httperrors.ErrBadRequest.WithDetail(err.Error())
	case errors.Is(err, users.ErrEmailDuplicate):
		return httperrors.ErrConflict.WithDetail("admin email already exists")
	case repository.IsDuplicateKey(err):
		return httperrors.ErrConflict.WithMessage(MsgAlreadyExists)
	case repository.IsConflict(err):
		return httperrors.ErrConflict.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithMessage(fallback).WithCause(err)
	}
}
