package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/students/internal/config"
	"github.com/JonMunkholm/students/internal/student"
)

// newTestGateway returns a gateway over a fresh sqlite file with the table created.
func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	g, err := New(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "students.db"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := g.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	return g
}

func mustCreate(t *testing.T, g *Gateway, f student.Fields) student.Record {
	t.Helper()
	rec, err := g.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("Create(%+v) error = %v", f, err)
	}
	return rec
}

func mustReadAll(t *testing.T, g *Gateway) []student.Record {
	t.Helper()
	records, err := g.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return records
}

var asha = student.Fields{Name: "Asha", Class: "10A", BatchYear: 2024, Mobile: "9998887771"}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("New() expected error for unknown driver")
	}
}

func TestBootstrap_Idempotent(t *testing.T) {
	g := newTestGateway(t)

	if err := g.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	if err := g.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestCreate_ThenReadAll(t *testing.T) {
	g := newTestGateway(t)

	rec := mustCreate(t, g, asha)
	if rec.ID == 0 {
		t.Fatal("Create() returned zero id")
	}

	records := mustReadAll(t, g)
	if len(records) != 1 {
		t.Fatalf("ReadAll() returned %d records, want 1", len(records))
	}

	want := student.Record{ID: rec.ID, Name: "Asha", Class: "10A", BatchYear: 2024, Mobile: "9998887771"}
	if records[0] != want {
		t.Errorf("ReadAll()[0] = %+v, want %+v", records[0], want)
	}
}

func TestCreate_AssignsFreshIDs(t *testing.T) {
	g := newTestGateway(t)

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		rec := mustCreate(t, g, student.Fields{
			Name: fmt.Sprintf("Student %d", i), Class: "9B", BatchYear: 2023,
			Mobile: fmt.Sprintf("90000000%02d", i),
		})
		if seen[rec.ID] {
			t.Fatalf("id %d assigned twice", rec.ID)
		}
		seen[rec.ID] = true
	}

	records := mustReadAll(t, g)
	for i := 1; i < len(records); i++ {
		if records[i-1].ID >= records[i].ID {
			t.Errorf("records not ordered by id: %d before %d", records[i-1].ID, records[i].ID)
		}
	}
}

func TestCreate_DuplicateMobile(t *testing.T) {
	g := newTestGateway(t)
	mustCreate(t, g, asha)

	dup := asha
	dup.Name = "Someone Else"
	_, err := g.Create(context.Background(), dup)
	if err == nil {
		t.Fatal("Create() expected error for duplicate mobile")
	}
	if !errors.Is(err, student.ErrDuplicateMobile) {
		t.Errorf("error = %v, want ErrDuplicateMobile", err)
	}
	if !errors.Is(err, student.ErrStore) {
		t.Errorf("error = %v, should also match ErrStore", err)
	}

	if records := mustReadAll(t, g); len(records) != 1 {
		t.Errorf("ReadAll() returned %d records after rejected insert, want 1", len(records))
	}
}

func TestUpdate_ChangesOnlyTarget(t *testing.T) {
	g := newTestGateway(t)
	first := mustCreate(t, g, asha)
	second := mustCreate(t, g, student.Fields{Name: "Ravi", Class: "10B", BatchYear: 2023, Mobile: "9998887772"})

	changed := student.Fields{Name: "Asha K", Class: "11A", BatchYear: 2025, Mobile: "9998887779"}
	if err := g.Update(context.Background(), first.ID, changed); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	records := mustReadAll(t, g)
	if len(records) != 2 {
		t.Fatalf("ReadAll() returned %d records, want 2", len(records))
	}
	if got := records[0]; got.ID != first.ID || got.Fields() != changed {
		t.Errorf("updated record = %+v, want id %d with %+v", got, first.ID, changed)
	}
	if records[1] != second {
		t.Errorf("untouched record = %+v, want %+v", records[1], second)
	}
}

func TestUpdate_DuplicateMobile(t *testing.T) {
	g := newTestGateway(t)
	first := mustCreate(t, g, asha)
	mustCreate(t, g, student.Fields{Name: "Ravi", Class: "10B", BatchYear: 2023, Mobile: "9998887772"})

	clash := first.Fields()
	clash.Mobile = "9998887772"
	err := g.Update(context.Background(), first.ID, clash)
	if !errors.Is(err, student.ErrDuplicateMobile) {
		t.Fatalf("Update() error = %v, want ErrDuplicateMobile", err)
	}

	if got := mustReadAll(t, g)[0]; got != first {
		t.Errorf("record changed after rejected update: %+v", got)
	}
}

func TestUpdate_MissingIDIsNoop(t *testing.T) {
	g := newTestGateway(t)
	rec := mustCreate(t, g, asha)

	if err := g.Update(context.Background(), rec.ID+100, asha); err != nil {
		t.Fatalf("Update() of missing id error = %v", err)
	}
	if records := mustReadAll(t, g); len(records) != 1 || records[0] != rec {
		t.Errorf("ReadAll() = %+v, want only %+v", records, rec)
	}
}

func TestDelete_RemovesAndRepeatsSafely(t *testing.T) {
	g := newTestGateway(t)
	first := mustCreate(t, g, asha)
	second := mustCreate(t, g, student.Fields{Name: "Ravi", Class: "10B", BatchYear: 2023, Mobile: "9998887772"})

	if err := g.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	records := mustReadAll(t, g)
	if len(records) != 1 || records[0] != second {
		t.Fatalf("ReadAll() after delete = %+v, want only %+v", records, second)
	}

	if err := g.Delete(context.Background(), first.ID); err != nil {
		t.Errorf("repeated Delete() error = %v, want nil", err)
	}
}

func TestUpdateDelete_LogAffectedRows(t *testing.T) {
	g := newTestGateway(t)
	rec := mustCreate(t, g, asha)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := context.Background()
	if err := g.Update(ctx, rec.ID, asha); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := g.Delete(ctx, rec.ID+100); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `msg="student updated"`) || !strings.Contains(lines[0], "rows=1") {
		t.Errorf("update log = %q, want rows=1", lines[0])
	}
	if !strings.Contains(lines[1], `msg="student deleted"`) || !strings.Contains(lines[1], "rows=0") {
		t.Errorf("delete log = %q, want rows=0", lines[1])
	}
}

func TestReadAll_Empty(t *testing.T) {
	g := newTestGateway(t)

	if records := mustReadAll(t, g); len(records) != 0 {
		t.Errorf("ReadAll() on empty table = %+v", records)
	}
}

func TestOperations_BackendFailure(t *testing.T) {
	g, err := New(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "missing", "dir", "students.db"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if _, err := g.ReadAll(ctx); !errors.Is(err, student.ErrStore) {
		t.Errorf("ReadAll() error = %v, want ErrStore", err)
	}
	if _, err := g.Create(ctx, asha); !errors.Is(err, student.ErrStore) {
		t.Errorf("Create() error = %v, want ErrStore", err)
	}
	if err := g.Update(ctx, 1, asha); !errors.Is(err, student.ErrStore) {
		t.Errorf("Update() error = %v, want ErrStore", err)
	}
	if err := g.Delete(ctx, 1); !errors.Is(err, student.ErrStore) {
		t.Errorf("Delete() error = %v, want ErrStore", err)
	}
	if _, err := g.Create(ctx, asha); errors.Is(err, student.ErrDuplicateMobile) {
		t.Errorf("Create() error = %v, should not be a duplicate", err)
	}
}

func TestUniqueViolationClassifiers(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		err    error
		want   bool
	}{
		{"mysql duplicate entry", config.DriverMySQL, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql wrapped", config.DriverMySQL, fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062}), true},
		{"mysql other error", config.DriverMySQL, &mysql.MySQLError{Number: 1045}, false},
		{"postgres unique violation", config.DriverPostgres, &pgconn.PgError{Code: "23505"}, true},
		{"postgres not null violation", config.DriverPostgres, &pgconn.PgError{Code: "23502"}, false},
		{"plain error", config.DriverPostgres, errors.New("duplicate key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := lookupDialect(tt.driver)
			if err != nil {
				t.Fatalf("lookupDialect(%q) error = %v", tt.driver, err)
			}
			if got := d.isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPlaceholdersPerDialect(t *testing.T) {
	for driver, want := range map[string]string{
		config.DriverMySQL:    "DELETE FROM students WHERE id = ?",
		config.DriverSQLite:   "DELETE FROM students WHERE id = ?",
		config.DriverPostgres: "DELETE FROM students WHERE id = $1",
	} {
		g, err := New(config.DatabaseConfig{Driver: driver})
		if err != nil {
			t.Fatalf("New(%q) error = %v", driver, err)
		}
		query, args, err := g.sb.Delete(table).Where("id = ?", int64(7)).ToSql()
		if err != nil {
			t.Fatalf("ToSql() error = %v", err)
		}
		if query != want {
			t.Errorf("%s: query = %q, want %q", driver, query, want)
		}
		if len(args) != 1 || args[0] != int64(7) {
			t.Errorf("%s: args = %v, want [7]", driver, args)
		}
	}
}

func TestQuoteMySQLIdent(t *testing.T) {
	tests := map[string]string{
		"CRUD":    "`CRUD`",
		"we`ird":  "`we``ird`",
		"school1": "`school1`",
	}
	for in, want := range tests {
		if got := quoteMySQLIdent(in); got != want {
			t.Errorf("quoteMySQLIdent(%q) = %q, want %q", in, got, want)
		}
	}
}
