package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"       // PostgreSQL driver
	_ "modernc.org/sqlite"      // SQLite driver (CGo-free)
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// Dialect selects the SQL flavor for placeholder binding and schema creation.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Open creates a database connection for the configured driver and pings it
// to ensure connectivity.
func Open(driver Dialect, dataSourceName string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch driver {
	case DialectPostgres:
		db, err = sql.Open("postgres", dataSourceName)
	case DialectSQLite:
		db, err = sql.Open("sqlite", dataSourceName)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == DialectSQLite {
		// modernc.org/sqlite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent ledger writes.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(defaultMaxOpenConns)
		db.SetMaxIdleConns(defaultMaxIdleConns)
		db.SetConnMaxLifetime(defaultConnMaxLifetime)
		db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS staff (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    alias VARCHAR(50),
    email VARCHAR(100) NOT NULL UNIQUE,
    birth_date DATE NOT NULL,
    start_date DATE NOT NULL,
    interests VARCHAR(500),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS delivery_records (
    id BIGSERIAL PRIMARY KEY,
    staff_id BIGINT NOT NULL,
    occasion_kind VARCHAR(20) NOT NULL,
    occasion_year INT NOT NULL,
    status VARCHAR(20) NOT NULL,
    retry_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT delivery_key_unique UNIQUE (staff_id, occasion_kind, occasion_year)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS staff (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    alias TEXT,
    email TEXT NOT NULL UNIQUE,
    birth_date TIMESTAMP NOT NULL,
    start_date TIMESTAMP NOT NULL,
    interests TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS delivery_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    staff_id INTEGER NOT NULL,
    occasion_kind TEXT NOT NULL,
    occasion_year INTEGER NOT NULL,
    status TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (staff_id, occasion_kind, occasion_year)
);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(db *sql.DB, driver Dialect) error {
	schema := sqliteSchema
	if driver == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// rebind rewrites ?-style placeholders into the dialect's native form.
// Queries in this package are written with ? and rebound for Postgres.
func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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
