package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// The DDL below is valid for both Postgres and SQLite.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		distance TEXT NOT NULL DEFAULT '',
		estimated_time TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS route_stops (
		id TEXT PRIMARY KEY,
		route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		company_id TEXT NOT NULL,
		stop_number INTEGER NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		priority DOUBLE PRECISION,
		time_window_start TEXT NOT NULL DEFAULT '',
		time_window_end TEXT NOT NULL DEFAULT ''
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_routes_company
	ON routes(company_id);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_route_stops_route_number
	ON route_stops(route_id, stop_number);
	`,
	`
	CREATE TABLE IF NOT EXISTS distance_cache (
		pair_key TEXT PRIMARY KEY,
		miles DOUBLE PRECISION NOT NULL,
		minutes DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`,
}

// Initialize the database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
