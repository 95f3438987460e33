package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads the configuration from the environment, fills in defaults and
// validates it. Every field is tagged with the variable it comes from:
//
//	Port int `env:"SERVER_PORT" default:"8080"`
//	URL  string `env:"DATABASE_URL" envAlt:"DB_URL"`
func Load() (*Config, error) {
	cfg := &Config{}

	for _, section := range []any{&cfg.Server, &cfg.Database, &cfg.Logging} {
		if err := loadSection(reflect.ValueOf(section).Elem()); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadSection fills one settings struct from its env tags.
func loadSection(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, value := lookup(field.Tag)
		if name == "" || value == "" {
			continue
		}
		if err := parseInto(v.Field(i), value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}
	return nil
}

// lookup returns the variable name and its value: the primary variable,
// then the alternate, then the default.
func lookup(tag reflect.StructTag) (name, value string) {
	name = tag.Get("env")
	if name == "" {
		return "", ""
	}
	if value = os.Getenv(name); value != "" {
		return name, value
	}
	if alt := tag.Get("envAlt"); alt != "" {
		if value = os.Getenv(alt); value != "" {
			return alt, value
		}
	}
	return name, tag.Get("default")
}

// parseInto sets a string, int, bool or time.Duration field.
func parseInto(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(value)

	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(int64(n))

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

// problems collects validation failures across sections.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var errs problems
	c.Database.validate(&errs)
	c.Server.validate(&errs)
	c.Logging.validate(&errs)

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *DatabaseConfig) validate(errs *problems) {
	switch c.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		errs.addf("DB_DRIVER (%q) must be one of: mysql, postgres, sqlite3", c.Driver)
	}
	if c.URL == "" && c.Name == "" {
		errs.addf("DB_NAME or DATABASE_URL is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		errs.addf("DB_PORT (%d) must be 0-65535", c.Port)
	}
	if c.Timeout < 0 {
		errs.addf("DB_TIMEOUT must be non-negative")
	}
}

func (c *ServerConfig) validate(errs *problems) {
	if c.Port <= 0 || c.Port > 65535 {
		errs.addf("SERVER_PORT (%d) must be 1-65535", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		errs.addf("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		errs.addf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
}

func (c *LoggingConfig) validate(errs *problems) {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs.addf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		errs.addf("LOG_FORMAT (%q) must be one of: text, json", c.Format)
	}
}

// String describes the config for logging with the password and URL masked.
func (c *Config) String() string {
	db := fmt.Sprintf("Driver: %q, Host: %q, User: %q, Password: [MASKED], Name: %q",
		c.Database.Driver, c.Database.Host, c.Database.User, c.Database.Name)
	if c.Database.URL != "" {
		db = fmt.Sprintf("Driver: %q, URL: [MASKED]", c.Database.Driver)
	}
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, Database: {%s}, Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port, db, c.Logging.Level, c.Logging.Format)
}
