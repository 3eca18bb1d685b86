package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dropDatabas3/hellojwks/internal/app"
	"github.com/dropDatabas3/hellojwks/internal/config"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// version se sobreescribe con -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		flagConfig  = flag.String("config", "configs/config.yaml", "ruta a config.yaml (opcional)")
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env (opcional)")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		if err := godotenv.Load(*flagEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️  .env: %v", err)
		}
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "hellojwks",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer c.Close()

	handler, err := c.Handler(version)
	if err != nil {
		lg.Fatal("router failed", logger.Err(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("storage_driver", cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		lg.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("server stopped with error", logger.Err(err))
		c.Close()
		os.Exit(1)
	}
	lg.Info("bye")
}
