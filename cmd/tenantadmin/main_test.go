package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	jwtx "github.com/dropDatabas3/tenantadmin/internal/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_KIND", "none")
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	envFile := filepath.Join(t.TempDir(), "missing.env")
	cmd.SetArgs(append([]string{"--env-file", envFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTenantsCreate(t *testing.T) {
	out, err := run(t, "tenants", "create",
		"--company", "Acme",
		"--admin-email", "admin@acme.test",
		"--admin-password", "S3cret!pass",
		"--plan", "pro",
	)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got["tenantId"])
	assert.Equal(t, "Acme", got["companyName"])
	assert.Equal(t, "pro", got["plan"])
}

func TestTenantsCreateMissingFields(t *testing.T) {
	_, err := run(t, "tenants", "create", "--company", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestTenantsGetNotFound(t *testing.T) {
	_, err := run(t, "tenants", "get", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant not found")
}

func TestTenantsGetRequiresID(t *testing.T) {
	_, err := run(t, "tenants", "get")
	require.Error(t, err)
}

func TestMigrateRequiresPostgres(t *testing.T) {
	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestToken(t *testing.T) {
	out, err := run(t, "token", "--sub", "op-1", "--tenant", "t-1", "--roles", "TenantAdmin, User")
	require.NoError(t, err)

	var got struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Bearer", got.TokenType)

	claims, err := jwtx.Verifier{Secret: []byte(testSecret)}.Parse(got.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, "t-1", claims.TenantID)
	assert.Equal(t, []string{"TenantAdmin", "User"}, claims.Roles)
}

func TestTokenRequiresSubject(t *testing.T) {
	_, err := run(t, "token")
	require.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "oracle")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "tenants", "get", "x"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}
