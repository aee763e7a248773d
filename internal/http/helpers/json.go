// Package helpers contiene utilidades compartidas por los controllers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/tenantadmin/internal/http/errors"
)

// MaxBodyBytes es el límite de los bodies JSON.
const MaxBodyBytes = 1 << 20

// ReadJSON valida Content-Type y decodifica el body en v (tolera campos
// desconocidos). Los errores ya son *AppError.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		return httperrors.ErrInvalidContentType
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return httperrors.ErrInvalidJSON.WithDetail("empty body")
	case errors.As(err, &tooLarge):
		return httperrors.ErrBodyTooLarge
	default:
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
}

// WriteJSON escribe v como JSON con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RequireFields responde MISSING_FIELDS si missing no está vacío.
func RequireFields(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return httperrors.ErrMissingFields.WithDetail(strings.Join(missing, ","))
}
