package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/students/internal/config"
	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/logging"
	"github.com/JonMunkholm/students/internal/store"
	"github.com/JonMunkholm/students/internal/tui"
)

// defaultLogFile keeps log output off the terminal the program draws on.
const defaultLogFile = "students-tui.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Overload overwrites existing env vars; a missing .env is fine.
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	path := cfg.Logging.File
	if path == "" {
		path = defaultLogFile
	}
	out, closeLog, err := logging.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, out)

	if envErr != nil {
		slog.Info("no .env file found, using environment variables")
	}

	gw, err := store.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	ctx := context.Background()
	if err := gw.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	slog.Info("database ready", "driver", gw.Driver(), "name", cfg.Database.Name)

	ctrl := form.NewController(gw, form.WithObserver(func(from, to form.Phase) {
		slog.Debug("form phase", "from", from, "to", to)
	}))

	if _, err := tea.NewProgram(tui.New(ctx, ctrl), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
