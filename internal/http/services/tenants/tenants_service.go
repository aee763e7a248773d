// Package tenants contiene el servicio de gestión de tenants: alta con su
// usuario administrador, lectura con cache y baja.
package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/tenantadmin/internal/cache"
	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantadmin/internal/http/dto/tenants"
	userdto "github.com/dropDatabas3/tenantadmin/internal/http/dto/users"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/users"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/dropDatabas3/tenantadmin/internal/store"
	"golang.org/x/sync/singleflight"
)

// Service define las operaciones de tenants expuestas por la API.
type Service interface {
	// Create crea el tenant y su usuario TenantAdmin en una sola transacción.
	Create(ctx context.Context, req dto.TenantCreationDTO) (*repository.Tenant, error)

	// Get lee el tenant, primero del cache. ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*repository.Tenant, error)

	// Update cambia CompanyName y Plan. Retorna nil, nil si el tenant no existe.
	Update(ctx context.Context, id string, req dto.TenantUpdateDTO) (*repository.Tenant, error)

	Delete(ctx context.Context, id string) error
}

// CacheObserver registra hits y misses del cache.
type CacheObserver interface {
	CacheLookup(cache, result string)
}

// Deps contiene las dependencias del service.
type Deps struct {
	Provider store.Provider
	Tenants  repository.TenantRepository
	Users    users.Service
	Cache    cache.Client  // nil = sin cache
	CacheTTL time.Duration // 0 = TTL del cliente
	Observer CacheObserver // opcional
}

// Errores del servicio
var (
	ErrInvalidInput = errors.New("invalid tenant input")
	ErrNotFound     = errors.New("tenant not found")
)

const cacheName = "tenants"

type service struct {
	deps  Deps
	group singleflight.Group
	gens  sync.Map // id -> *cacheGen
}

func New(deps Deps) Service {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	return &service{deps: deps}
}

func (s *service) Create(ctx context.Context, req dto.TenantCreationDTO) (*repository.Tenant, error) {
	log := logger.From(ctx)

	if missing := req.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ","))
	}

	t := &repository.Tenant{
		CompanyName: strings.TrimSpace(req.CompanyName),
		Plan:        strings.TrimSpace(req.Plan),
	}

	// 1. Tenant + admin inicial: todo o nada
	err := store.RunInTransaction(ctx, s.deps.Provider, func(ctx context.Context) error {
		if err := s.deps.Tenants.Create(ctx, t); err != nil {
			return err
		}
		_, err := s.deps.Users.Create(ctx, t.ID, userdto.UserDTO{
			Email:    req.AdminEmail,
			Password: req.AdminPassword,
			Roles:    repository.RoleTenantAdmin,
		})
		if err != nil {
			return fmt.Errorf("create tenant admin: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create tenant", logger.Err(err), logger.Email(req.AdminEmail))
		return nil, mapErr(err)
	}

	log.Info("tenant created", logger.TenantID(t.ID), logger.String("plan", t.Plan))
	return t, nil
}

func (s *service) Get(ctx context.Context, id string) (*repository.Tenant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}

	if t, ok := s.fromCache(ctx, id); ok {
		return t, nil
	}

	// misses concurrentes del mismo id comparten una sola lectura, que no
	// depende de la cancelación de ningún caller
	ch := s.group.DoChan(id, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), id)
	})
	var v any
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, mapErr(res.Err)
		}
		v = res.Val
	}
	if v == nil {
		return nil, ErrNotFound
	}
	// cada caller recibe su propia copia
	cp := *v.(*repository.Tenant)
	return &cp, nil
}

func (s *service) Update(ctx context.Context, id string, req dto.TenantUpdateDTO) (*repository.Tenant, error) {
	log := logger.From(ctx)

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if missing := req.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ","))
	}

	var out *repository.Tenant
	err := store.RunInTransaction(ctx, s.deps.Provider, func(ctx context.Context) error {
		opts := repository.NewOptionsBuilder[*repository.Tenant, string]().WithAsTracking(true).MustBuild()
		t, err := s.deps.Tenants.TryGet(ctx, id, &opts)
		if err != nil || t == nil {
			return err
		}
		t.CompanyName = strings.TrimSpace(req.CompanyName)
		t.Plan = strings.TrimSpace(req.Plan)
		if err := s.deps.Tenants.Update(ctx, t); err != nil {
			return err
		}
		s.invalidate(ctx, id)
		out = t
		return nil
	})
	if err != nil {
		log.Error("failed to update tenant", logger.TenantID(id), logger.Err(err))
		return nil, mapErr(err)
	}
	if out == nil {
		log.Warn("tenant not found", logger.TenantID(id))
		return nil, nil
	}

	log.Info("tenant updated", logger.TenantID(id))
	return out, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	err := store.RunInTransaction(ctx, s.deps.Provider, func(ctx context.Context) error {
		if err := s.deps.Tenants.Delete(ctx, id); err != nil {
			return err
		}
		s.invalidate(ctx, id)
		return nil
	})
	if err != nil {
		logger.From(ctx).Error("failed to delete tenant", logger.TenantID(id), logger.Err(err))
		return mapErr(err)
	}
	return nil
}

// =================================================================================
// CACHE
// =================================================================================

// cachedTenant guarda también el RowVersion, que el JSON del tenant omite.
type cachedTenant struct {
	Tenant     repository.Tenant `json:"tenant"`
	RowVersion []byte            `json:"row_version"`
}

func cacheKey(id string) string { return "tenant:" + id }

func (s *service) fromCache(ctx context.Context, id string) (*repository.Tenant, bool) {
	raw, err := s.deps.Cache.Get(ctx, cacheKey(id))
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("tenant cache get failed", logger.TenantID(id), logger.Err(err))
		}
		s.observe("miss")
		return nil, false
	}
	var c cachedTenant
	if err := json.Unmarshal(raw, &c); err != nil {
		logger.From(ctx).Warn("tenant cache entry corrupt", logger.TenantID(id), logger.Err(err))
		s.observe("miss")
		return nil, false
	}
	s.observe("hit")
	c.Tenant.RowVersion = c.RowVersion
	return &c.Tenant, true
}

// cacheGen cuenta las invalidaciones de un id. Una lectura solo llena el
// cache si nadie invalidó ese id desde que empezó a leer.
type cacheGen struct {
	mu sync.Mutex
	n  uint64
}

func (s *service) generation(id string) *cacheGen {
	g, _ := s.gens.LoadOrStore(id, &cacheGen{})
	return g.(*cacheGen)
}

func (s *service) load(ctx context.Context, id string) (any, error) {
	g := s.generation(id)
	g.mu.Lock()
	seen := g.n
	g.mu.Unlock()

	t, err := s.deps.Tenants.TryGet(ctx, id, nil)
	if err != nil || t == nil {
		if seen == 0 {
			s.gens.CompareAndDelete(id, g)
		}
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n != seen {
		logger.From(ctx).Debug("tenant changed while loading, not cached", logger.TenantID(id))
		return t, nil
	}
	s.toCache(ctx, t)
	return t, nil
}

func (s *service) toCache(ctx context.Context, t *repository.Tenant) {
	c := cachedTenant{Tenant: *t, RowVersion: t.RowVersion}
	c.Tenant.Users = nil
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, cacheKey(t.ID), raw, s.deps.CacheTTL); err != nil {
		logger.From(ctx).Warn("tenant cache set failed", logger.TenantID(t.ID), logger.Err(err))
	}
}

// invalidate borra la entrada cuando la transacción en curso confirma.
func (s *service) invalidate(ctx context.Context, id string) {
	del := func() {
		g := s.generation(id)
		g.mu.Lock()
		g.n++
		err := s.deps.Cache.Delete(context.WithoutCancel(ctx), cacheKey(id))
		g.mu.Unlock()
		if err != nil {
			logger.From(ctx).Warn("tenant cache invalidation failed", logger.TenantID(id), logger.Err(err))
		}
	}
	if scope := store.ScopeFrom(ctx); scope != nil {
		scope.OnCommit(del)
		return
	}
	del()
}

func (s *service) observe(result string) {
	if s.deps.Observer != nil {
		s.deps.Observer.CacheLookup(cacheName, result)
	}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, users.ErrInvalidInput), errors.Is(err, users.ErrEmailDuplicate):
		return err
	case repository.IsInvalidInput(err):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}

// ToResponse mapea la entidad a su DTO público.
func ToResponse(t *repository.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		TenantID:    t.ID,
		CompanyName: t.CompanyName,
		CreatedDate: t.CreatedDate,
		Plan:        t.Plan,
	}
}
