package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropDatabas3/tenantadmin/internal/config"
	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	jwtx "github.com/dropDatabas3/tenantadmin/internal/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dropDatabas3/tenantadmin/internal/store/adapters/dal"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	cfg.Auth.Issuer = "tenantadmin"
	return cfg
}

func TestBuild_Memory(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "memory", a.Provider.Name())
	require.NotNil(t, a.Issuer)

	tok, _, err := a.Issuer.Sign(jwtx.Claims{Roles: []string{repository.RoleTenantAdmin}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/tenants",
		strings.NewReader(`{"companyName":"Acme","adminEmail":"a@acme.test","adminPassword":"Passw0rd!","plan":"Pro"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	id := strings.TrimPrefix(rec.Header().Get("Location"), "/tenants/")
	tn, err := a.TenantService.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", tn.CompanyName)

	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild_AuthDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Disabled = true
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.Nil(t, a.Issuer)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenants/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "nope"
	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestBuild_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Disabled = true
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 1
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenants/missing", nil))
		return rec
	}
	assert.Equal(t, http.StatusNotFound, get().Code)
	assert.Equal(t, http.StatusTooManyRequests, get().Code)

	// /healthz queda fuera del límite
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
