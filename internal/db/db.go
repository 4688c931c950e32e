// Package db records runs, unit transitions and render attempts in a SQL
// ledger. SQLite is the default; a postgres:// DSN selects pgx.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "pgx"
)

// DB wraps the ledger connection.
type DB struct {
	conn    *sql.DB
	dsn     string
	dialect Dialect
}

// DialectFor picks the driver for a DSN.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open opens or creates the ledger at dsn. For SQLite the parent directory
// is created when missing.
func Open(dsn string) (*DB, error) {
	dialect := DialectFor(dsn)
	if dialect == SQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", dsn, err)
		}
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect == SQLite {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dialect == SQLite {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set journal mode: %w", err)
		}
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return &DB{conn: conn, dsn: dsn, dialect: dialect}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for advanced queries.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// Dialect reports which driver the DB uses.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// rebind rewrites ? placeholders as $n for Postgres.
func (d *DB) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) exec(query string, args ...any) (sql.Result, error) {
	return d.conn.Exec(d.rebind(query), args...)
}

func (d *DB) query(query string, args ...any) (*sql.Rows, error) {
	return d.conn.Query(d.rebind(query), args...)
}

func (d *DB) queryRow(query string, args ...any) *sql.Row {
	return d.conn.QueryRow(d.rebind(query), args...)
}

// schemaV1 uses %s for the surrogate key column type, which differs between
// SQLite and Postgres. Timestamps are RFC 3339 text written by the caller.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    document    TEXT NOT NULL,
    status      TEXT NOT NULL,
    units       INTEGER NOT NULL DEFAULT 0,
    artifacts   INTEGER NOT NULL DEFAULT 0,
    final_path  TEXT,
    error       TEXT,
    started_at  TEXT NOT NULL,
    finished_at TEXT
);

CREATE TABLE IF NOT EXISTS unit_events (
    id          %[1]s,
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    unit_id     TEXT NOT NULL,
    slug        TEXT NOT NULL,
    event       TEXT NOT NULL,
    attempt     INTEGER NOT NULL DEFAULT 0,
    detail      TEXT,
    timestamp   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_unit_events_run ON unit_events(run_id, id);

CREATE TABLE IF NOT EXISTS render_attempts (
    id            %[1]s,
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    unit_id       TEXT NOT NULL,
    slug          TEXT NOT NULL,
    attempt       INTEGER NOT NULL,
    provenance    TEXT NOT NULL,
    succeeded     BOOLEAN NOT NULL,
    resolved      BOOLEAN NOT NULL,
    exit_code     INTEGER NOT NULL,
    timed_out     BOOLEAN NOT NULL DEFAULT FALSE,
    duration_ms   INTEGER NOT NULL,
    artifact_path TEXT,
    timestamp     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_render_attempts_slug ON render_attempts(slug, run_id);
`

func (d *DB) schema() []string {
	key := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.dialect == Postgres {
		key = "BIGSERIAL PRIMARY KEY"
	}
	var stmts []string
	for _, s := range strings.Split(fmt.Sprintf(schemaV1, key), ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// Migrate applies the database schema.
func (d *DB) Migrate() error {
	var count int
	err := d.queryRow("SELECT COUNT(*) FROM schema_version WHERE version = 1").Scan(&count)
	if err == nil && count > 0 {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range d.schema() {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema v1: %w", err)
		}
	}
	if _, err := tx.Exec(d.rebind("INSERT INTO schema_version (version, applied_at) VALUES (1, ?)"), now()); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Reset drops all tables and re-applies the schema.
func (d *DB) Reset() error {
	tables := []string{"render_attempts", "unit_events", "runs", "schema_version"}
	for _, t := range tables {
		if _, err := d.conn.Exec("DROP TABLE IF EXISTS " + t); err != nil {
			return fmt.Errorf("drop table %s: %w", t, err)
		}
	}
	return d.Migrate()
}
