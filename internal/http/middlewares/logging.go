package middlewares

import (
	"net"
	"net/http"
	"time"

	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// statusRecorder captura el status code de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

// RequestObserver recibe las métricas de cada request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
	Inflight(method string) prometheus.Gauge
}

// WithLogging inyecta un logger con request_id/method/path en el contexto y
// registra el resultado de cada request. Con obs != nil también mide.
//
// El nivel depende del status: 5xx Error, 4xx Warn, el resto Info.
func WithLogging(obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.L().With(
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx := logger.ToContext(r.Context(), reqLog)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			var inflight prometheus.Gauge
			if obs != nil {
				inflight = obs.Inflight(r.Method)
				inflight.Inc()
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			dur := time.Since(start)
			if inflight != nil {
				inflight.Dec()
			}
			// la ruta de chi solo se conoce al volver
			route := routePattern(r)
			if obs != nil {
				obs.ObserveRequest(r.Method, route, rec.status, dur)
			}

			fields := []logger.Field{
				logger.String("route", route),
				logger.Status(rec.status),
				logger.Duration(dur),
				logger.ClientIP(clientIP(r)),
			}
			switch {
			case rec.status >= 500:
				reqLog.Error("request failed", fields...)
			case rec.status >= 400:
				reqLog.Warn("request completed with client error", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
