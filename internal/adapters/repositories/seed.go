package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"truckmates-route-service/internal/platform/db"

	"github.com/google/uuid"
)

type RouteSeed struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"company_id"`
	Name      string     `json:"name"`
	Stops     []StopSeed `json:"stops"`
}

type StopSeed struct {
	ID              string   `json:"id"`
	Address         string   `json:"address"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Priority        *float64 `json:"priority"`
	TimeWindowStart string   `json:"time_window_start"`
	TimeWindowEnd   string   `json:"time_window_end"`
}

// Populate the database with routes and stops from a JSON file.
// Existing rows with the same id are left untouched. Missing ids are
// generated.
func SeedFromJSON(ctx context.Context, conn *sql.DB, dialect db.Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed routes: parse json: %w", err)
	}

	return SeedRoutes(ctx, conn, dialect, data)
}

// SeedRoutes validates and inserts the given routes in one transaction.
func SeedRoutes(ctx context.Context, conn *sql.DB, dialect db.Dialect, data []RouteSeed) error {
	for i := range data {
		r := &data[i]
		if strings.TrimSpace(r.CompanyID) == "" {
			return fmt.Errorf("seed routes: route at index %d: company_id cannot be empty", i+1)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("seed routes: route at index %d: name cannot be empty", i+1)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		for j := range r.Stops {
			s := &r.Stops[j]
			if strings.TrimSpace(s.Address) == "" && (s.Lat == nil || s.Lng == nil) {
				return fmt.Errorf("seed routes: route %q stop %d: address or lat/lng required", r.Name, j+1)
			}
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed routes: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	routeStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
	INSERT INTO routes (id, company_id, name)
	VALUES (%s)
	ON CONFLICT (id) DO NOTHING;
	`, dialect.Placeholders(1, 3)))
	if err != nil {
		return fmt.Errorf("seed routes: prepare route insert: %w", err)
	}
	defer routeStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
	INSERT INTO route_stops (
		id,
		route_id,
		company_id,
		stop_number,
		address,
		lat,
		lng,
		priority,
		time_window_start,
		time_window_end
	)
	VALUES (%s)
	ON CONFLICT (id) DO NOTHING;
	`, dialect.Placeholders(1, 10)))
	if err != nil {
		return fmt.Errorf("seed routes: prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	for _, r := range data {
		if _, err := routeStmt.ExecContext(ctx, r.ID, r.CompanyID, r.Name); err != nil {
			return fmt.Errorf("seed routes: insert route id=%s: %w", r.ID, err)
		}
		for j, s := range r.Stops {
			_, err := stopStmt.ExecContext(ctx,
				s.ID, r.ID, r.CompanyID, j+1, strings.TrimSpace(s.Address),
				nullFloat(s.Lat), nullFloat(s.Lng), nullFloat(s.Priority),
				s.TimeWindowStart, s.TimeWindowEnd,
			)
			if err != nil {
				return fmt.Errorf("seed routes: insert stop id=%s: %w", s.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed routes: commit tx: %w", err)
	}

	return nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
