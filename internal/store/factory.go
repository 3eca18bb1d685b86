// Package store abre el record store configurado.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/dropDatabas3/hellojwks/internal/security/secretbox"
	"github.com/dropDatabas3/hellojwks/internal/store/memory"
	"github.com/dropDatabas3/hellojwks/internal/store/pg"
	"github.com/dropDatabas3/hellojwks/internal/store/sealed"
	migrations "github.com/dropDatabas3/hellojwks/migrations/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Drivers soportados.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Driver   string
	DSN      string
	Postgres struct {
		MaxOpenConns, MaxIdleConns int
		ConnMaxLifetime            time.Duration
	}
	RunMigrations bool

	// MasterKey (base64 o hex, 32 bytes) activa el cifrado de private_key en reposo.
	MasterKey string
}

// Stores expone el repositorio abierto y cómo liberarlo.
type Stores struct {
	Repo repository.JWKRepository

	// Pool es el pgxpool cuando el driver es postgres; nil en memoria.
	Pool  *pgxpool.Pool
	Close func()
}

// Open abre el store según cfg.Driver. Con postgres y RunMigrations aplica
// las migraciones embebidas antes de devolver. Con MasterKey el repositorio
// queda envuelto por sealed.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	var box *secretbox.Box
	if cfg.MasterKey != "" {
		b, err := secretbox.FromString(cfg.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("store: master key: %w", err)
		}
		box = b
	}
	s, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if box != nil {
		s.Repo = sealed.Wrap(s.Repo, box)
	}
	return s, nil
}

func open(ctx context.Context, cfg Config) (*Stores, error) {
	log := logger.From(ctx).With(logger.Component("store"))

	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "pg", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store: postgres driver requires a dsn: %w", repository.ErrNoDatabase)
		}
		s, err := pg.New(ctx, cfg.DSN, pg.Options{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("store: open postgres: %w", err)
		}
		if cfg.RunMigrations {
			res, err := s.Migrate(ctx, migrations.FS, migrations.Dir)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("store: migrate: %w", err)
			}
			log.Info("migrations applied",
				logger.Count(len(res.Applied)),
				logger.Int("skipped", len(res.Skipped)),
				logger.DurationMs(res.Duration.Milliseconds()),
			)
		}
		return &Stores{Repo: s, Pool: s.Pool(), Close: s.Close}, nil

	case DriverMemory, "":
		log.Warn("using in-memory key store; keys are lost on restart")
		return &Stores{Repo: memory.New(), Close: func() {}}, nil

	default:
		return nil, fmt.Errorf("store: unsupported driver: %s", cfg.Driver)
	}
}
