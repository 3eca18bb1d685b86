package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/dropDatabas3/hellojwks/internal/config"
	"github.com/dropDatabas3/hellojwks/internal/store/pg"
	migrations "github.com/dropDatabas3/hellojwks/migrations/postgres"
	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "Path to YAML config (optional)")
		envFile    = flag.String("env-file", ".env", "Path to .env (optional)")
		dir        = flag.String("dir", "", "Migrations directory on disk; empty uses the embedded set")
	)
	flag.Parse()

	// Positional args: [action]
	action := "up"
	if args := flag.Args(); len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}

	if *envFile != "" {
		_ = godotenv.Load(*envFile)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.DSN == "" {
		log.Fatalf("storage.dsn (STORAGE_DSN / DATABASE_URL) is required")
	}

	var (
		fsys    fs.FS = migrations.FS
		fsysDir       = migrations.Dir
	)
	if *dir != "" {
		fsys, fsysDir = os.DirFS(*dir), "."
	}

	ctx := context.Background()
	s, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{MaxOpenConns: 2})
	if err != nil {
		log.Fatalf("pg: %v", err)
	}
	defer s.Close()

	switch action {
	case "up":
		res, err := s.Migrate(ctx, fsys, fsysDir)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if len(res.Applied) == 0 {
			log.Println("No pending migrations. Nothing to do.")
			return
		}
		log.Printf("Applied %d migration(s) %v in %s", len(res.Applied), res.Applied, res.Duration)

	case "status":
		st, err := s.Status(ctx, fsys, fsysDir)
		if err != nil {
			log.Fatalf("status: %v", err)
		}
		for _, m := range st {
			mark := "pending"
			if m.Applied {
				mark = "applied"
			}
			log.Printf("%04d_%s\t%s", m.Version, m.Name, mark)
		}

	default:
		log.Fatalf("unknown action %q. Use: up | status", action)
	}
}
