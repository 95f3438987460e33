// Package store is the gateway to the students table.
//
// Every operation opens its own connection, runs exactly one
// parameterized statement inside a transaction, commits and closes.
// Nothing is pooled or cached between calls: the application is
// single-user and interactive, so connection setup cost doesn't matter
// and the table itself is the only shared state.
package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/JonMunkholm/students/internal/config"
	"github.com/JonMunkholm/students/internal/logging"
	"github.com/JonMunkholm/students/internal/student"
)

const table = "students"

var columns = []string{"id", "name", "class", "batch_year", "mobile"}

// Gateway issues INSERT/SELECT/UPDATE/DELETE statements against the
// students table.
type Gateway struct {
	cfg     config.DatabaseConfig
	dialect dialect
	sb      sq.StatementBuilderType
}

// New creates a Gateway for the configured backing store.
// It does not connect; the first operation does.
func New(cfg config.DatabaseConfig) (*Gateway, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		cfg:     cfg,
		dialect: d,
		sb:      sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}, nil
}

// Driver returns the configured backend name.
func (g *Gateway) Driver() string {
	return g.dialect.name
}

// Create inserts a record and returns it with the store-assigned id.
// A mobile number that already exists fails with student.ErrDuplicateMobile.
func (g *Gateway) Create(ctx context.Context, f student.Fields) (student.Record, error) {
	ib := g.sb.Insert(table).
		Columns("name", "class", "batch_year", "mobile").
		Values(f.Name, f.Class, f.BatchYear, f.Mobile)
	if g.dialect.returning {
		ib = ib.Suffix("RETURNING id")
	}

	query, args, err := ib.ToSql()
	if err != nil {
		return student.Record{}, fmt.Errorf("build create student query: %w", err)
	}

	var id int64
	err = g.withTx(ctx, "create student", func(ctx context.Context, tx *sql.Tx) error {
		if g.dialect.returning {
			return tx.QueryRowContext(ctx, query, args...).Scan(&id)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return student.Record{}, err
	}

	logging.FromContext(ctx).Info("student created", "id", id)

	return student.Record{
		ID:        id,
		Name:      f.Name,
		Class:     f.Class,
		BatchYear: f.BatchYear,
		Mobile:    f.Mobile,
	}, nil
}

// ReadAll returns every record ordered by id ascending.
func (g *Gateway) ReadAll(ctx context.Context) ([]student.Record, error) {
	query, args, err := g.sb.Select(columns...).
		From(table).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build read students query: %w", err)
	}

	var records []student.Record
	err = g.withTx(ctx, "read students", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r student.Record
			if err := rows.Scan(&r.ID, &r.Name, &r.Class, &r.BatchYear, &r.Mobile); err != nil {
				return err
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Update replaces all editable fields of the record with the given id.
// Updating an id that no longer exists changes nothing and is not an error.
func (g *Gateway) Update(ctx context.Context, id int64, f student.Fields) error {
	query, args, err := g.sb.Update(table).
		Set("name", f.Name).
		Set("class", f.Class).
		Set("batch_year", f.BatchYear).
		Set("mobile", f.Mobile).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update student query: %w", err)
	}

	var affected int64
	err = g.withTx(ctx, "update student", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("student updated", "id", id, "rows", affected)
	return nil
}

// Delete removes the record with the given id.
// Deleting a missing id is a no-op.
func (g *Gateway) Delete(ctx context.Context, id int64) error {
	query, args, err := g.sb.Delete(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete student query: %w", err)
	}

	var affected int64
	err = g.withTx(ctx, "delete student", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("student deleted", "id", id, "rows", affected)
	return nil
}

// Ping opens a connection and checks the backend responds.
func (g *Gateway) Ping(ctx context.Context) error {
	ctx, cancel := g.opContext(ctx)
	defer cancel()

	db, err := g.open(g.cfg.DSN())
	if err != nil {
		return g.storeError("ping", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return g.storeError("ping", err)
	}
	return nil
}

// withTx runs fn on a fresh connection inside a transaction and commits.
// The connection is closed on every path.
func (g *Gateway) withTx(ctx context.Context, op string, fn func(context.Context, *sql.Tx) error) error {
	ctx, cancel := g.opContext(ctx)
	defer cancel()

	db, err := g.open(g.cfg.DSN())
	if err != nil {
		return g.storeError(op, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return g.storeError(op, err)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return g.storeError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return g.storeError(op, err)
	}
	return nil
}

// open returns a handle limited to a single connection.
func (g *Gateway) open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(g.dialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)
	return db, nil
}

func (g *Gateway) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, g.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (g *Gateway) storeError(op string, err error) error {
	return &student.StoreError{
		Op:        op,
		Duplicate: g.dialect.isUniqueViolation(err),
		Err:       err,
	}
}
