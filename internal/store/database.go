// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store is the data access layer: connection setup per SQL dialect,
// goose migrations, a small query builder and typed repositories.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for database/sql
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
	_ "github.com/mattn/go-sqlite3"    // cgo SQLite driver for database/sql
	_ "modernc.org/sqlite"             // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql migrations/postgres/*.sql
var migrations embed.FS

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Dialect identifies the SQL flavour a DB speaks.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// gooseDialect returns the goose dialect name.
func (d Dialect) gooseDialect() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "postgres"
	default:
		return "sqlite3"
	}
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Queries built in this package never contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// DB wraps *sql.DB with the dialect used to build queries.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DBConfig holds database configuration options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible defaults.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// sqlitePragmas configures SQLite for concurrent web traffic.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
	"PRAGMA busy_timeout=5000",  // Wait 5s when database is locked
	"PRAGMA synchronous=NORMAL", // Good balance of safety and speed
	"PRAGMA cache_size=-64000",  // 64MB cache
	"PRAGMA foreign_keys=ON",    // Enforce foreign key constraints
	"PRAGMA temp_store=MEMORY",  // Store temp tables in memory
}

// NewDB opens a SQLite database file with the pure Go driver.
func NewDB(path string) (*DB, error) {
	return Open("sqlite", path, DefaultDBConfig())
}

// Open opens a database for one of the supported drivers:
// "sqlite" (modernc), "sqlite3" (mattn, cgo), "mysql" and "postgres" (pgx).
// MySQL DSNs must include parseTime=true.
func Open(driver, dsn string, cfg DBConfig) (*DB, error) {
	var (
		sqlDriver = driver
		dialect   Dialect
	)
	switch driver {
	case "sqlite":
		dialect = DialectSQLite
		dsn = withSQLiteTimeFormat(dsn)
	case "sqlite3":
		dialect = DialectSQLite
	case "mysql":
		dialect = DialectMySQL
	case "postgres", "pgx":
		sqlDriver = "pgx"
		dialect = DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if dialect == DialectSQLite {
		for _, pragma := range sqlitePragmas {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
			}
		}
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// withSQLiteTimeFormat makes modernc write time.Time values in a format
// that sorts lexically and parses back into time.Time.
func withSQLiteTimeFormat(dsn string) string {
	if strings.Contains(dsn, "_time_format=") || dsn == ":memory:" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}

// Migrate runs all pending database migrations for the DB's dialect.
func Migrate(db *DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(db.Dialect.gooseDialect()); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations/"+string(db.Dialect)); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// exec runs a statement after rebinding placeholders.
func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.Dialect.Rebind(query), args...)
}

// query runs a row query after rebinding placeholders.
func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.Dialect.Rebind(query), args...)
}

// queryRow runs a single-row query after rebinding placeholders.
func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, db.Dialect.Rebind(query), args...)
}

// insertReturningID runs an INSERT and returns the generated integer key.
// PostgreSQL has no LastInsertId, so it uses RETURNING there.
func (db *DB) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if db.Dialect == DialectPostgres {
		var id int64
		if err := db.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := db.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
