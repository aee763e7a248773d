package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeYAML(t, "auth:\n  jwt_secret: "+secret+"\n")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, 2*time.Minute, c.Cache.TTL)
	require.Equal(t, 100, c.Repository.MaxTake)
}

func TestLoadParsesYAML(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
server:
  addr: ":9090"
  shutdown_timeout: 3s
storage:
  driver: postgres
  dsn: postgres://localhost/tenantadmin
  max_conns: 20
cache:
  kind: redis
  redis:
    addr: localhost:6379
auth:
  jwt_secret: `+secret+`
  issuer: https://auth.example.com
  disabled: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, 3*time.Second, c.Server.ShutdownTimeout)
	require.Equal(t, int32(20), c.Storage.MaxConns)
	require.Equal(t, "localhost:6379", c.Cache.Redis.Addr)
	require.False(t, c.Auth.Disabled, "prod never disables auth")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://env")
	t.Setenv("AUTH_JWT_SECRET", secret)
	t.Setenv("CACHE_TTL", "30s")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7000", c.Server.Addr)
	require.Equal(t, "postgres://env", c.Storage.DSN)
	require.Equal(t, 30*time.Second, c.Cache.TTL)
}

func TestRateLimitEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", secret)
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")

	c, err := Load("")
	require.NoError(t, err)
	require.True(t, c.RateLimit.Enabled)
	require.Equal(t, 10, c.RateLimit.Requests)
	require.Equal(t, 10*time.Second, c.RateLimit.Window)

	c.RateLimit.Window = time.Millisecond
	require.Error(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Storage.Driver = "postgres"
	c.Cache.Kind = "redis"
	err := c.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "storage.dsn")
	require.Contains(t, err.Error(), "cache.redis.addr")
	require.Contains(t, err.Error(), "jwt_secret")

	c = Default()
	c.Auth.Disabled = true
	require.NoError(t, c.Validate())

	c.Storage.Driver = "mongo"
	require.Error(t, c.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
