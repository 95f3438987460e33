package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/students/internal/config"
	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/logging"
	"github.com/JonMunkholm/students/internal/store"
	"github.com/JonMunkholm/students/internal/web"
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

	out, closeLog, err := logging.OpenFile(cfg.Logging.File)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.Logging.File, "error", err)
		os.Exit(1)
	}
	defer closeLog()
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, out)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"db_driver", cfg.Database.Driver,
		"db_name", cfg.Database.Name,
		"db_timeout", cfg.Database.Timeout,
	)

	gw, err := store.New(cfg.Database)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := gw.Bootstrap(ctx); err != nil {
		slog.Error("failed to bootstrap database", "error", err)
		os.Exit(1)
	}
	if err := gw.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database", "driver", gw.Driver(), "name", cfg.Database.Name)

	ctrl := form.NewController(gw, form.WithObserver(func(from, to form.Phase) {
		slog.Debug("form phase", "from", from, "to", to)
	}))

	// The grid starts populated, as if Read had been pressed.
	if n := ctrl.Read(ctx); n.Level == form.LevelError {
		slog.Warn("initial read failed", "message", n.Message, "error", n.Err)
	}

	server := web.NewServer(ctrl, gw, cfg.Server)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
