// Package health contiene el controller de /healthz.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/tenantadmin/internal/http/helpers"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
)

// Pinger es cualquier dependencia chequeable (provider, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse es el body de /healthz.
type HealthResponse struct {
	Status     string            `json:"status"` // ok | unavailable
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components"`
}

// HealthController chequea las dependencias registradas.
type HealthController struct {
	version    string
	components map[string]Pinger
	timeout    time.Duration
}

func NewHealthController(version string, components map[string]Pinger) *HealthController {
	return &HealthController{version: version, components: components, timeout: 2 * time.Second}
}

// Healthz maneja GET /healthz
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: c.version, Components: make(map[string]string, len(c.components))}
	for name, p := range c.components {
		if err := p.Ping(ctx); err != nil {
			logger.From(ctx).Warn("health check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			continue
		}
		resp.Components[name] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
