package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/students/internal/config"
	"github.com/JonMunkholm/students/internal/logging"
)

// Bootstrap creates the database (mysql, when configured) and the students
// table if they don't exist. Safe to run on every startup.
func (g *Gateway) Bootstrap(ctx context.Context) error {
	logger := logging.WithFields(ctx, "driver", g.dialect.name)

	if g.dialect.name == config.DriverMySQL && g.cfg.CreateDatabase && g.cfg.Name != "" {
		if err := g.execOn(ctx, g.cfg.ServerDSN(), "create database",
			"CREATE DATABASE IF NOT EXISTS "+quoteMySQLIdent(g.cfg.Name)); err != nil {
			return err
		}
		logger.Debug("database ready", "name", g.cfg.Name)
	}

	if err := g.execOn(ctx, g.cfg.DSN(), "create table", g.dialect.schema); err != nil {
		return err
	}

	logger.Info("students table ready")
	return nil
}

// execOn runs a single DDL statement on a fresh connection to dsn.
func (g *Gateway) execOn(ctx context.Context, dsn, op, stmt string) error {
	ctx, cancel := g.opContext(ctx)
	defer cancel()

	db, err := g.open(dsn)
	if err != nil {
		return g.storeError(op, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return g.storeError(op, fmt.Errorf("%s: %w", firstLine(stmt), err))
	}
	return nil
}

// quoteMySQLIdent wraps an identifier in backticks, doubling any inside it.
func quoteMySQLIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
