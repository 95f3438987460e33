package store

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/students/internal/config"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

// dialect captures the per-backend differences the gateway cares about.
type dialect struct {
	name string

	// driver is the database/sql driver name to open.
	driver string

	placeholder sq.PlaceholderFormat

	// returning means INSERT ... RETURNING id is used instead of LastInsertId.
	returning bool

	// schema is the idempotent table DDL.
	schema string

	isUniqueViolation func(error) bool
}

var dialects = map[string]dialect{
	config.DriverMySQL: {
		name:        config.DriverMySQL,
		driver:      "mysql",
		placeholder: sq.Question,
		schema: `CREATE TABLE IF NOT EXISTS students (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	class VARCHAR(50) NOT NULL,
	batch_year INT NOT NULL,
	mobile VARCHAR(15) NOT NULL UNIQUE
)`,
		isUniqueViolation: func(err error) bool {
			var myErr *mysql.MySQLError
			return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
		},
	},
	config.DriverPostgres: {
		name:        config.DriverPostgres,
		driver:      "pgx",
		placeholder: sq.Dollar,
		returning:   true,
		schema: `CREATE TABLE IF NOT EXISTS students (
	id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	class VARCHAR(50) NOT NULL,
	batch_year INTEGER NOT NULL,
	mobile VARCHAR(15) NOT NULL UNIQUE
)`,
		isUniqueViolation: func(err error) bool {
			var pgErr *pgconn.PgError
			return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
		},
	},
	config.DriverSQLite: {
		name:        config.DriverSQLite,
		driver:      "sqlite3",
		placeholder: sq.Question,
		schema: `CREATE TABLE IF NOT EXISTS students (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	class TEXT NOT NULL,
	batch_year INTEGER NOT NULL,
	mobile TEXT NOT NULL UNIQUE
)`,
		isUniqueViolation: func(err error) bool {
			var liteErr sqlite3.Error
			return errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
		},
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unknown driver: %s", driver)
	}
	return d, nil
}
