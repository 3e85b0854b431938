// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/config"
	"github.com/Shivanand-hulikatti/house-calendar/internal/database"
	"github.com/Shivanand-hulikatti/house-calendar/internal/handler"
	"github.com/Shivanand-hulikatti/house-calendar/internal/repository"
	"github.com/Shivanand-hulikatti/house-calendar/internal/seed"
	"github.com/Shivanand-hulikatti/house-calendar/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $CALENDAR_CONFIG)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx := context.Background()

	// ── 1. Configuration and logging ──────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to local time zone", "err", err)
	}

	// ── 2. Storage ────────────────────────────────────────────────────────
	var store service.EventStore
	switch cfg.Storage {
	case config.StorageMemory:
		store = repository.NewMemoryEventRepository(nil)
		logger.Info("using in-memory storage")
	default:
		pool, err := database.NewPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = repository.NewEventRepository(pool)
		logger.Info("connected to PostgreSQL")
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	svc := service.NewCalendarService(store,
		service.WithLogger(logger),
		service.WithLocation(loc),
		service.WithMaxPerDay(cfg.Calendar.MaxEventsPerDay),
	)
	if cfg.SeedDemo {
		rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		if _, err := seed.Load(ctx, store, seed.DemoEvents(svc.Now(), rnd), logger); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}
	router := handler.NewRouter(handler.NewCalendarHandler(svc, logger), logger)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
