package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to Postgres through the pgx stdlib driver.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}

// OpenSQLite opens a local SQLite database file. SQLite allows a single
// writer, so the pool is pinned to one connection; this also keeps
// ":memory:" databases shared across calls.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", path, err)
	}

	return db, nil
}

// Connect opens the database selected by driver ("pgx" or "sqlite") and
// returns it with its placeholder dialect.
func Connect(driver, databaseURL, sqlitePath string) (*sql.DB, Dialect, error) {
	dialect := DialectFor(driver)

	switch dialect {
	case SQLite:
		conn, err := OpenSQLite(sqlitePath)
		return conn, dialect, err
	default:
		if databaseURL == "" {
			return nil, dialect, fmt.Errorf("openDB: DATABASE_URL is required for driver %q", driver)
		}
		conn, err := Open(databaseURL)
		return conn, dialect, err
	}
}
