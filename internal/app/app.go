// Package app arma el grafo de dependencias a partir de la configuración:
// provider, repositorios, cache, métricas, servicios y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/tenantadmin/internal/cache"
	"github.com/dropDatabas3/tenantadmin/internal/config"
	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/tenantadmin/internal/http/controllers/health"
	tenantsctrl "github.com/dropDatabas3/tenantadmin/internal/http/controllers/tenants"
	usersctrl "github.com/dropDatabas3/tenantadmin/internal/http/controllers/users"
	mw "github.com/dropDatabas3/tenantadmin/internal/http/middlewares"
	"github.com/dropDatabas3/tenantadmin/internal/http/router"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/tenants"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/users"
	jwtx "github.com/dropDatabas3/tenantadmin/internal/jwt"
	"github.com/dropDatabas3/tenantadmin/internal/metrics"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/dropDatabas3/tenantadmin/internal/rate"
	"github.com/dropDatabas3/tenantadmin/internal/store"
	"github.com/dropDatabas3/tenantadmin/internal/store/adapters/pg"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App es la aplicación cableada.
type App struct {
	Config   *config.Config
	Provider store.Provider
	Cache    cache.Client
	Metrics  *metrics.Metrics

	Tenants *store.TenantRepository
	Users   *store.Repository[*repository.User, string]

	TenantService tenants.Service
	UserService   users.Service

	// Issuer firma tokens con el secreto configurado. nil si no hay secreto.
	Issuer *jwtx.Issuer

	Handler http.Handler
}

// Build abre el provider y el cache configurados y arma servicios y router.
// Los drivers de storage deben estar registrados (ver adapters/dal).
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Named("app")

	provider, err := store.OpenProvider(ctx, store.ProviderConfig{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxConns:        cfg.Storage.MaxConns,
		MinConns:        cfg.Storage.MinConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		Migrate:         cfg.Storage.Migrate,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var pool func() *pgxpool.Pool
	if pp, ok := provider.(*pg.Provider); ok {
		pool = pp.Pool
	}
	m, err := metrics.New(pool)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	c, err := cache.New(ctx, cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.Cache.TTL,
	})
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}

	a := &App{Config: cfg, Provider: provider, Cache: c, Metrics: m}
	repoLog := logger.Named("repository")
	a.Tenants = store.NewTenantRepository(provider,
		store.WithLogger[*repository.Tenant](repoLog),
		store.WithObserver[*repository.Tenant](m))
	a.Users = store.NewRepository[*repository.User, string](provider,
		store.WithLogger[*repository.User](repoLog),
		store.WithObserver[*repository.User](m))

	a.UserService = users.New(users.Deps{
		Provider: provider,
		Repo:     a.Users,
		MaxTake:  cfg.Repository.MaxTake,
	})
	a.TenantService = tenants.New(tenants.Deps{
		Provider: provider,
		Tenants:  a.Tenants,
		Users:    a.UserService,
		Cache:    c,
		CacheTTL: cfg.Cache.TTL,
		Observer: m,
	})

	auth := mw.AllowAll()
	if cfg.Auth.JWTSecret != "" {
		secret := []byte(cfg.Auth.JWTSecret)
		a.Issuer = jwtx.NewIssuer(secret, cfg.Auth.Issuer, cfg.Auth.Audience)
		if !cfg.Auth.Disabled {
			auth = mw.RequireAuth(jwtx.Verifier{Secret: secret, Issuer: cfg.Auth.Issuer, Audience: cfg.Auth.Audience})
		}
	}
	if cfg.Auth.Disabled {
		log.Warn("authentication disabled: every /api request is accepted")
	}

	var limit mw.Middleware
	if cfg.RateLimit.Enabled {
		limit = mw.WithRateLimit(newLimiter(cfg, c))
	}

	a.Handler = router.New(router.Deps{
		Tenants: tenantsctrl.NewTenantsController(a.TenantService),
		Users:   usersctrl.NewUsersController(a.UserService),
		Health: healthctrl.NewHealthController(cfg.App.Version, map[string]healthctrl.Pinger{
			"storage": provider,
			"cache":   c,
		}),
		Auth:      auth,
		RateLimit: limit,
		Observer:  m,
		Metrics:   m.Handler(),
	})

	log.Info("app wired",
		logger.Driver(provider.Name()),
		logger.String("cache", cfg.Cache.Kind),
		logger.String("env", cfg.App.Env),
	)
	return a, nil
}

// newLimiter comparte la conexión de Redis cuando el cache es Redis.
func newLimiter(cfg *config.Config, c cache.Client) rate.Limiter {
	prefix := cfg.Cache.Redis.Prefix + "rl:"
	if rc, ok := c.(*cache.Redis); ok {
		return rate.NewRedisLimiter(rc.Client(), prefix, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	return rate.NewMemoryLimiter(prefix, cfg.RateLimit.Requests, cfg.RateLimit.Window)
}

// Close libera cache y provider.
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.Provider.Close())
}
