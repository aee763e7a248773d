// Package router arma el chi.Router de la API.
package router

import (
	"net/http"

	healthctrl "github.com/dropDatabas3/tenantadmin/internal/http/controllers/health"
	tenantsctrl "github.com/dropDatabas3/tenantadmin/internal/http/controllers/tenants"
	usersctrl "github.com/dropDatabas3/tenantadmin/internal/http/controllers/users"
	httperrors "github.com/dropDatabas3/tenantadmin/internal/http/errors"
	mw "github.com/dropDatabas3/tenantadmin/internal/http/middlewares"
	"github.com/go-chi/chi/v5"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Tenants *tenantsctrl.TenantsController
	Users   *usersctrl.UsersController
	Health  *healthctrl.HealthController

	// Auth protege /api. nil equivale a mw.AllowAll.
	Auth mw.Middleware

	// RateLimit se aplica a /api después de Auth (opcional).
	RateLimit mw.Middleware

	// Observer recibe métricas HTTP (opcional).
	Observer mw.RequestObserver

	// Metrics sirve /metrics (opcional).
	Metrics http.Handler
}

// New crea el router:
//
//	GET    /healthz
//	GET    /metrics
//	POST   /api/tenants
//	GET    /api/tenants/{tenantId}
//	PUT    /api/tenants/{tenantId}
//	DELETE /api/tenants/{tenantId}
//	GET    /api/tenants/{tenantId}/users
//	POST   /api/tenants/{tenantId}/users
//	GET    /api/tenants/{tenantId}/users/{userId}
//	PUT    /api/tenants/{tenantId}/users/{userId}
//	DELETE /api/tenants/{tenantId}/users/{userId}
func New(d Deps) chi.Router {
	auth := d.Auth
	if auth == nil {
		auth = mw.AllowAll()
	}

	r := chi.NewRouter()
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging(d.Observer))
	r.Use(mw.WithRecover())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/tenants", func(r chi.Router) {
		r.Use(auth)
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}

		r.Post("/", d.Tenants.Create)

		r.Route("/{tenantId}", func(r chi.Router) {
			r.Use(mw.RequireTenantAccess())

			r.Get("/", d.Tenants.Get)
			r.Put("/", d.Tenants.Update)
			r.Delete("/", d.Tenants.Delete)

			if d.Users != nil {
				r.Route("/users", func(r chi.Router) {
					r.Get("/", d.Users.List)
					r.Post("/", d.Users.Create)
					r.Get("/{userId}", d.Users.Get)
					r.Put("/{userId}", d.Users.Update)
					r.Delete("/{userId}", d.Users.Delete)
				})
			}
		})
	})

	return r
}
