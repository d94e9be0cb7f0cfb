package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fitplan/internal/api"
	"github.com/hyperengineering/fitplan/internal/config"
	"github.com/hyperengineering/fitplan/internal/planner"
	"github.com/hyperengineering/fitplan/internal/store"
	"github.com/hyperengineering/fitplan/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "fitplan",
	Short:        "Fitplan - onboarding and program service",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(stepsCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	var st store.Store = db
	if cfg.Cache.SessionEntries > 0 {
		cached, err := store.NewCachedStore(db, cfg.Cache.SessionEntries)
		if err != nil {
			db.Close()
			return err
		}
		st = cached
	}
	slog.Info("store initialized", "driver", cfg.Database.Driver, "cache_entries", cfg.Cache.SessionEntries)

	gen, err := newGenerator(ctx, cfg.Planner)
	if err != nil {
		db.Close()
		return err
	}
	slog.Info("planner initialized", "provider", cfg.Planner.Provider, "model", cfg.Planner.Model)

	handler := api.NewHandler(st, gen, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		PlanBurst:      cfg.RateLimit.PlanBurst,
		PlanRefill:     time.Duration(cfg.RateLimit.PlanRefill),
	})
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	purger := worker.NewSessionPurgeWorker(st,
		time.Duration(cfg.Worker.SessionPurgeInterval),
		time.Duration(cfg.Worker.SessionTTL))
	startWorker(ctx, &wg, "session-purge", purger.Run)

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is returned after Shutdown; anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Drain in-flight requests, then wait for workers, then close the store.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := st.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func openStore(cfg config.DatabaseConfig) (*store.SQLStore, error) {
	dsn := cfg.Path
	if cfg.Driver == config.DriverPostgres {
		dsn = cfg.DSN
	}
	return store.Open(cfg.Driver, dsn)
}

func newGenerator(ctx context.Context, cfg config.PlannerConfig) (planner.Generator, error) {
	var base planner.Generator
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := planner.NewGemini(ctx, cfg.APIKey(), cfg.Model)
		if err != nil {
			return nil, err
		}
		base = g
	default:
		base = planner.NewOpenAI(cfg.APIKey(), cfg.Model)
	}
	return planner.WithRetry(base, cfg.MaxAttempts, time.Duration(cfg.RetryBase)).
		WithAttemptTimeout(time.Duration(cfg.Timeout)), nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
