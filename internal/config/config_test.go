package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORAGE_DSN", "DATABASE_URL", "STORAGE_DRIVER", "CACHE_KIND", "APP_ENV", "RATE_LIMIT_GENERATE", "RATE_LIMIT_WINDOW", "KEYS_MASTER_KEY", "SECRETBOX_MASTER_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, []string{"*"}, c.Server.CORSAllowedOrigins)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, 15*time.Second, c.Cache.TTL)
	require.Equal(t, 86400*time.Second, c.PrivateKeyRetention())
	require.Equal(t, 172800*time.Second, c.PublicRetention())
	require.Equal(t, 2048, c.Keys.RSABits)
	require.Equal(t, 0, c.RateLimit.GeneratePerWindow)
	require.Equal(t, time.Minute, c.RateLimit.Window)
}

func TestLoad_RateLimitEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_GENERATE", "30")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 30, c.RateLimit.GeneratePerWindow)
	require.Equal(t, 10*time.Second, c.RateLimit.Window)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
server:
  addr: ":9000"
  cors_allowed_origins: ["https://a.example"]
storage:
  driver: postgres
  dsn: postgres://yaml
  postgres:
    conn_max_lifetime: 5m
cache:
  kind: redis
  ttl: 30s
  redis:
    addr: redis:6379
keys:
  private_key_expiration_seconds: 100
  key_expiration_seconds: 200
  rsa_bits: 3072
`), 0o600))

	clearEnv(t)
	t.Setenv("STORAGE_DSN", "postgres://env")
	t.Setenv("KEY_EXPIRATION_SECONDS", "250")
	t.Setenv("RUN_MIGRATIONS_ON_START", "1")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", c.App.Env)
	require.Equal(t, ":9000", c.Server.Addr)
	require.Equal(t, []string{"https://a.example"}, c.Server.CORSAllowedOrigins)
	require.Equal(t, "postgres://env", c.Storage.DSN)
	require.Equal(t, 5*time.Minute, c.Storage.Postgres.ConnMaxLifetime)
	require.True(t, c.Storage.RunMigrations)
	require.Equal(t, "redis", c.Cache.Kind)
	require.Equal(t, 30*time.Second, c.Cache.TTL)
	require.Equal(t, 100*time.Second, c.PrivateKeyRetention())
	require.Equal(t, 250*time.Second, c.PublicRetention())
	require.Equal(t, 3072, c.Keys.RSABits)
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://fallback")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, "postgres://fallback", c.Storage.DSN)
	require.Equal(t, "none", c.Cache.Kind)
}

func TestLoad_PostgresRejectsMemoryCache(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DSN", "postgres://env")
	t.Setenv("CACHE_KIND", "memory")
	_, err := Load("")
	require.ErrorContains(t, err, "cache.kind memory")

	t.Setenv("CACHE_KIND", "redis")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "redis", c.Cache.Kind)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	c.Keys.RSABits = 1024
	require.ErrorContains(t, c.Validate(), "rsa_bits")

	c = Default()
	c.Storage.Driver = "postgres"
	require.ErrorContains(t, c.Validate(), "storage.dsn")

	c = Default()
	c.Cache.Kind = "memcached"
	require.ErrorContains(t, c.Validate(), "cache.kind")

	c = Default()
	c.Keys.PrivateKeyExpirationSeconds = -1
	require.ErrorContains(t, c.Validate(), "private_key_expiration_seconds")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MasterKeyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRETBOX_MASTER_KEY", "legacy")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "legacy", c.Keys.MasterKey)

	t.Setenv("KEYS_MASTER_KEY", "preferred")
	c, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "preferred", c.Keys.MasterKey)
}
