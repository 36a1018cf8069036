package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fits/internal/config"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/logging"
	_ "github.com/JonMunkholm/fits/internal/reconcile/rules" // Register dataset corrections
	"github.com/JonMunkholm/fits/internal/store"
	"github.com/JonMunkholm/fits/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"index_store", cfg.Index.Store,
		"batch_max_concurrent", cfg.Batch.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Index)
	if err != nil {
		slog.Error("failed to open index store", "store", cfg.Index.Store, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	snap, err := store.LoadOrBuild(ctx, st, cfg.Index.Dataset, cfg.ReconcileOptions())
	if err != nil {
		slog.Error("failed to load reference index", "error", err, "code", fits.MapError(err).Code)
		os.Exit(1)
	}

	slog.Info("reference index loaded",
		"entries", snap.Index.Len(),
		"ranges", len(snap.Index.Ranges()),
		"saved_at", snap.SavedAt,
	)

	engine, err := fits.NewEngine(snap.Index, fits.WithZoneOrder(cfg.ZoneOrder()))
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(engine, snap, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := server.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for batches to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		st.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
