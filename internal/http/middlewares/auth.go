package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	httperrors "github.com/dropDatabas3/tenantadmin/internal/http/errors"
	jwtx "github.com/dropDatabas3/tenantadmin/internal/jwt"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/go-chi/chi/v5"
)

// TokenParser valida un bearer token.
type TokenParser interface {
	Parse(token string) (*jwtx.Claims, error)
}

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el
// contexto. Sin token o con token inválido responde 401.
func RequireAuth(parser TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(ah) < len("Bearer ") || !strings.EqualFold(ah[:len("Bearer ")], "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := parser.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Warn("invalid bearer token", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if claims.Subject != "" {
				ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(claims.Subject)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AllowAll deja pasar todo sin claims. Solo para auth.disabled en dev.
func AllowAll() Middleware {
	return func(next http.Handler) http.Handler { return next }
}

// RequireTenantAccess limita un token con tenant_id a su propio tenant
// ({tenantId} de la ruta) y solo deja a TenantAdmin escribir.
// Tokens sin tenant_id son de operador y pasan siempre.
func RequireTenantAccess() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil || claims.TenantID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if claims.TenantID != chi.URLParam(r, "tenantId") {
				httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("token is bound to another tenant"))
				return
			}
			if r.Method != http.MethodGet && !claims.HasRole(repository.RoleTenantAdmin) {
				httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("role TenantAdmin required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
