package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropDatabas3/hellojwks/internal/cache"
	"github.com/dropDatabas3/hellojwks/internal/config"
	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryStack(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Cache.Kind = cache.DriverMemory

	c, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)
	defer c.Close()

	h, err := c.Handler("test")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/jwks", strings.NewReader(`{"alg":"ES256"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ES256"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), "jwks_keys_generated_total")
}

func TestNew_RateLimitMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.RateLimit.GeneratePerWindow = 3

	c, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)
	defer c.Close()
	require.NotNil(t, c.GenerateLimiter)
}

func TestNew_PostgresWithoutDSN(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DSN = ""

	_, err := New(context.Background(), cfg, Options{})
	require.ErrorIs(t, err, repository.ErrNoDatabase)
}

func TestNew_SkipCache(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Cache.Kind = "redis" // ignorado con SkipCache

	c, err := New(context.Background(), cfg, Options{SkipCache: true})
	require.NoError(t, err)
	c.Close()
	c.Close()
}

func TestNew_MasterKeyRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Keys.MasterKey = "QkJCQkJCQkJCQkJCQkJCQkJCQkJCQkJCQkJCQkJCQkI=" // 32 x 'B'

	c, err := New(context.Background(), cfg, Options{SkipCache: true})
	require.NoError(t, err)
	defer c.Close()

	rec, err := c.Manager.Create(context.Background(), "Ed25519")
	require.NoError(t, err)
	got, err := c.Manager.GetPrivate(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.PrivateKey, got.PrivateKey)
	require.NotEmpty(t, got.PrivateKey)
}
