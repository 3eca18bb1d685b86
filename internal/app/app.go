// Package app arma el grafo de dependencias a partir de config.Config:
// store, cache, métricas, keystore.Manager y el router HTTP.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/hellojwks/internal/cache"
	"github.com/dropDatabas3/hellojwks/internal/config"
	"github.com/dropDatabas3/hellojwks/internal/http/router"
	"github.com/dropDatabas3/hellojwks/internal/jwk"
	"github.com/dropDatabas3/hellojwks/internal/keystore"
	"github.com/dropDatabas3/hellojwks/internal/metrics"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/dropDatabas3/hellojwks/internal/rate"
	"github.com/dropDatabas3/hellojwks/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rdb "github.com/redis/go-redis/v9"
)

// Container agrupa lo que necesitan cmd/service y cmd/keys.
type Container struct {
	Config   *config.Config
	Manager  *keystore.Manager
	Registry *prometheus.Registry

	// GenerateLimiter es nil si rate_limit.generate_per_window es 0.
	GenerateLimiter rate.Limiter

	closers []func()
}

// Options ajusta el armado. El zero value sirve para el servicio.
type Options struct {
	// SkipCache fuerza cache "none" (lo usa el CLI, que es de vida corta).
	SkipCache bool
}

// New abre el store y el cache, registra métricas y crea el Manager.
// Ante error libera lo que ya abrió.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *Container, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	c := &Container{Config: cfg, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// ─── Store ───
	scfg := store.Config{
		Driver:        cfg.Storage.Driver,
		DSN:           cfg.Storage.DSN,
		RunMigrations: cfg.Storage.RunMigrations,
		MasterKey:     cfg.Keys.MasterKey,
	}
	scfg.Postgres.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns
	scfg.Postgres.MaxIdleConns = cfg.Storage.Postgres.MaxIdleConns
	scfg.Postgres.ConnMaxLifetime = cfg.Storage.Postgres.ConnMaxLifetime

	stores, err := store.Open(ctx, scfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, stores.Close)

	// ─── Cache ───
	kind := cfg.Cache.Kind
	if opts.SkipCache {
		kind = cache.DriverNone
	}
	cc, err := cache.New(cache.Config{
		Driver:   kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("app: cache: %w", err)
	}
	c.closers = append(c.closers, func() { _ = cc.Close() })

	// ─── Rate limit ───
	if n := cfg.RateLimit.GeneratePerWindow; n > 0 {
		if kind == cache.DriverRedis {
			rc := rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			c.closers = append(c.closers, func() { _ = rc.Close() })
			c.GenerateLimiter = rate.NewRedisLimiter(rc, cfg.Cache.Redis.Prefix+":rl:", n, cfg.RateLimit.Window)
		} else {
			c.GenerateLimiter = rate.NewMemoryLimiter(n, cfg.RateLimit.Window)
		}
	}

	// ─── Métricas ───
	keyMetrics, err := metrics.NewKeys(c.Registry)
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}
	pool := stores.Pool
	for _, col := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewPoolCollector(func() *pgxpool.Pool { return pool }),
	} {
		if err := metrics.Register(c.Registry, col); err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
	}

	// ─── Keystore ───
	c.Manager, err = keystore.NewManager(keystore.Deps{
		Repo:    stores.Repo,
		Builder: jwk.NewBuilder(cfg.Keys.RSABits),
		Retention: keystore.Retention{
			PrivateKey: cfg.PrivateKeyRetention(),
			PublicOnly: cfg.PublicRetention(),
		},
		Cache:    cc,
		CacheTTL: cfg.Cache.TTL,
		Observer: keyMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	log.Info("container ready",
		logger.String("storage_driver", cfg.Storage.Driver),
		logger.String("cache_kind", kind),
		logger.Int("rsa_bits", cfg.Keys.RSABits),
		logger.Bool("sealed_at_rest", cfg.Keys.MasterKey != ""),
	)
	return c, nil
}

// Handler arma el router HTTP con /metrics servido desde el Registry del Container.
func (c *Container) Handler(version string) (http.Handler, error) {
	httpMetrics, err := metrics.NewHTTP(c.Registry)
	if err != nil {
		return nil, fmt.Errorf("app: http metrics: %w", err)
	}
	return router.New(router.Deps{
		Keys:               c.Manager,
		Health:             c.Manager,
		Version:            version,
		CORSAllowedOrigins: c.Config.Server.CORSAllowedOrigins,
		GenerateLimiter:    c.GenerateLimiter,
		HTTPMetrics:        httpMetrics,
		MetricsHandler:     promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}),
	}), nil
}

// Close libera store y cache en orden inverso de apertura.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
