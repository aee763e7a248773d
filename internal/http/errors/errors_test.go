package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrNotFound.WithMessage("Tenant not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"code": "NOT_FOUND", "message": "Tenant not found"}, body)
}

func TestWriteError_Wrapped(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("ctx: %w", ErrConflict.WithDetail("stale")))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"detail":"stale"`)
}

func TestWriteError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("db exploded"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db exploded")
}

func TestCopiesDoNotMutateBase(t *testing.T) {
	_ = ErrBadRequest.WithDetail("x").WithMessage("y")
	assert.Empty(t, ErrBadRequest.Detail)
	assert.Equal(t, "The request is malformed or missing parameters.", ErrBadRequest.Message)
}
