package middlewares

import (
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/tenantadmin/internal/http/errors"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/dropDatabas3/tenantadmin/internal/rate"
)

// WithRateLimit limita por tenant del token o, sin claims de tenant, por IP.
// Va después de la autenticación. Si el limiter falla, la request pasa.
func WithRateLimit(l rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), rateKey(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				httperrors.WriteError(w, httperrors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if c := GetClaims(r.Context()); c != nil && c.TenantID != "" {
		return "tenant:" + c.TenantID
	}
	return "ip:" + clientIP(r)
}
