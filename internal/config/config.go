// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1, single local user)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the backing store connection settings.
// Either URL is set, or the DSN is assembled from Host, Port, User,
// Password and Name.
type DatabaseConfig struct {
	// Driver selects the backing store: mysql, postgres or sqlite3 (default: mysql)
	Driver string `env:"DB_DRIVER" default:"mysql"`

	// URL is a complete driver DSN; overrides the individual pieces
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	Host     string `env:"DB_HOST" default:"127.0.0.1"`
	Port     int    `env:"DB_PORT"`
	User     string `env:"DB_USER" default:"root"`
	Password string `env:"DB_PASSWORD" envAlt:"YOUR_DB_PASSWORD_IN_ENV_FILE"`

	// Name is the database name, or the file path for sqlite3 (default: CRUD)
	Name string `env:"DB_NAME" default:"CRUD"`

	// CreateDatabase runs CREATE DATABASE IF NOT EXISTS during bootstrap (mysql only)
	CreateDatabase bool `env:"DB_CREATE_DATABASE" default:"true"`

	// Timeout bounds each store operation; 0 waits for the backend (default: 0s)
	Timeout time.Duration `env:"DB_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File redirects logs to a file; the terminal UI sets it so logs
	// don't draw over the screen
	File string `env:"LOG_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the data source name for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return c.dsn(c.Name)
}

// ServerDSN returns a DSN that connects to the server without selecting a
// database. Used to create the database itself during bootstrap.
func (c *DatabaseConfig) ServerDSN() string {
	if c.URL != "" && c.Driver == DriverMySQL {
		if mc, err := mysql.ParseDSN(c.URL); err == nil {
			mc.DBName = ""
			return mc.FormatDSN()
		}
	}
	return c.dsn("")
}

func (c *DatabaseConfig) dsn(name string) string {
	switch c.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.port())),
			Path:   "/" + name,
		}
		return u.String()

	case DriverSQLite:
		return name

	default:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
		mc.DBName = name
		return mc.FormatDSN()
	}
}

func (c *DatabaseConfig) port() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.Driver == DriverPostgres {
		return 5432
	}
	return 3306
}
