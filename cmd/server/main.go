package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/suicide-explorer/internal/config"
	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/logging"
	"github.com/JonMunkholm/suicide-explorer/internal/store"
	"github.com/JonMunkholm/suicide-explorer/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_path", cfg.Data.Path,
		"data_watch", cfg.Data.Watch,
		"publishing", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	if cfg.UsesDevSessionSecret() {
		slog.Warn("using the built-in development SESSION_SECRET; set SESSION_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := core.NewService(cfg.Data.Path)

	// Warm the cache so a broken data file shows up in the logs at startup.
	// The dashboard still starts and reports the error per request.
	if _, err := service.Cleaned(ctx); err != nil {
		slog.Warn("dataset not ready", "path", cfg.Data.Path, "error", err)
	}

	// Publishing is optional; a nil Publisher hides it.
	var publisher web.Publisher
	if cfg.Database.Enabled() {
		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		publisher = st
	}

	server := web.NewServer(service, publisher, cfg)

	eg, egctx := errgroup.WithContext(ctx)

	if cfg.Data.Watch {
		eg.Go(func() error {
			if err := service.Watch(egctx, nil); err != nil {
				slog.Error("data watcher failed", "error", err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
