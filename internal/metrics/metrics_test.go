package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
)

func TestResult(t *testing.T) {
	cases := map[error]string{
		nil:                               "ok",
		repository.ErrConcurrencyConflict: "concurrency_conflict",
		repository.ErrDuplicateKey:        "duplicate_key",
		repository.ErrNotFound:            "not_found",
		repository.ErrTenantMismatch:      "tenant_mismatch",
		repository.ErrInvalidInput:        "invalid_input",
		context.Canceled:                  "canceled",
		fmt.Errorf("boom"):                "error",
	}
	for err, want := range cases {
		require.Equal(t, want, Result(err), "err=%v", err)
	}
	require.Equal(t, "not_found", Result(fmt.Errorf("wrap: %w", repository.ErrNotFound)))
}

func TestHandlerExposesObservations(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveOperation("Tenant", "update", repository.ErrConcurrencyConflict, 3*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/tenants/{tenantId}", http.StatusOK, time.Millisecond)
	m.CacheLookup("tenants", "hit")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	require.True(t, strings.Contains(text, `repository_operations_total{entity="Tenant",op="update",result="concurrency_conflict"} 1`))
	require.True(t, strings.Contains(text, `http_requests_total{method="GET",route="/api/tenants/{tenantId}",status="200"} 1`))
	require.True(t, strings.Contains(text, `cache_lookups_total{cache="tenants",result="hit"} 1`))
}

func TestNewUsesIsolatedRegistry(t *testing.T) {
	_, err := New(nil)
	require.NoError(t, err)
	_, err = New(nil)
	require.NoError(t, err, "each instance owns its registry")
}
