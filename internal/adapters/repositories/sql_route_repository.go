package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"
)

// SQL-backed implementation of the RouteRepository port.
// Every query is filtered by company_id; that filter is the tenancy boundary.
type SQLRouteRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLRouteRepository(conn *sql.DB, dialect db.Dialect) *SQLRouteRepository {
	return &SQLRouteRepository{DB: conn, Dialect: dialect}
}

func (s *SQLRouteRepository) ph(n int) string { return s.Dialect.Placeholder(n) }

// Return all routes for a tenant, without stops.
func (s *SQLRouteRepository) ListRoutes(ctx context.Context, companyID string) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, "routes.List")(&err)

	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	query := fmt.Sprintf(`
	SELECT
		id,
		company_id,
		name,
		distance,
		estimated_time,
		version
	FROM routes
	WHERE company_id = %s
	ORDER BY name, id;
	`, s.ph(1))

	rows, err := s.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, 16)
	for rows.Next() {
		r := &domain.Route{}
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Name, &r.Distance, &r.EstimatedTime, &r.Version); err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

// Return one route with its stops ordered by stop_number.
func (s *SQLRouteRepository) GetRoute(ctx context.Context, companyID, routeID string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "routes.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	routeQuery := fmt.Sprintf(`
	SELECT
		id,
		company_id,
		name,
		distance,
		estimated_time,
		version
	FROM routes
	WHERE company_id = %s AND id = %s;
	`, s.ph(1), s.ph(2))

	r := &domain.Route{}
	err = s.DB.QueryRowContext(ctx, routeQuery, companyID, routeID).
		Scan(&r.ID, &r.CompanyID, &r.Name, &r.Distance, &r.EstimatedTime, &r.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route %s: %w", routeID, ports.ErrRouteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %s: query routes table: %w", routeID, err)
	}

	stopsQuery := fmt.Sprintf(`
	SELECT
		id,
		stop_number,
		address,
		lat,
		lng,
		priority,
		time_window_start,
		time_window_end
	FROM route_stops
	WHERE company_id = %s AND route_id = %s
	ORDER BY stop_number, id;
	`, s.ph(1), s.ph(2))

	rows, err := s.DB.QueryContext(ctx, stopsQuery, companyID, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route %s: query route_stops table: %w", routeID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st            domain.Stop
			lat, lng, pri sql.NullFloat64
		)
		if err := rows.Scan(&st.ID, &st.Rank, &st.Address, &lat, &lng, &pri, &st.TimeWindowStart, &st.TimeWindowEnd); err != nil {
			return nil, fmt.Errorf("get route %s: scan stop: %w", routeID, err)
		}
		if lat.Valid && lng.Valid {
			st.Coords = &domain.Coordinates{Lat: lat.Float64, Lon: lng.Float64}
		}
		if pri.Valid {
			st.Priority = domain.Float64(pri.Float64)
		}
		r.Stops = append(r.Stops, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get route %s: stop iteration: %w", routeID, err)
	}

	return r, nil
}

// ApplyRouteOrder writes stop ranks and the route's display strings in one
// transaction. The route row is updated first with a version check so a
// concurrent optimization of the same route fails with ErrVersionConflict
// instead of interleaving stop numbers.
func (s *SQLRouteRepository) ApplyRouteOrder(ctx context.Context, companyID string, route *domain.Route) (err error) {
	defer obs.Time(ctx, "routes.ApplyOrder")(&err)

	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	if route == nil {
		return errors.New("apply route order: route must be non-nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply route order: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	updateRoute := fmt.Sprintf(`
	UPDATE routes
	SET distance = %s,
		estimated_time = %s,
		version = version + 1,
		updated_at = CURRENT_TIMESTAMP
	WHERE company_id = %s AND id = %s AND version = %s;
	`, s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5))

	res, err := tx.ExecContext(ctx, updateRoute, route.Distance, route.EstimatedTime, companyID, route.ID, route.Version)
	if err != nil {
		return fmt.Errorf("apply route order %s: update route: %w", route.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply route order %s: rows affected: %w", route.ID, err)
	}
	if n == 0 {
		return s.missingRouteError(ctx, tx, companyID, route.ID)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
	UPDATE route_stops
	SET stop_number = %s
	WHERE company_id = %s AND route_id = %s AND id = %s;
	`, s.ph(1), s.ph(2), s.ph(3), s.ph(4)))
	if err != nil {
		return fmt.Errorf("apply route order %s: prepare stop update: %w", route.ID, err)
	}
	defer stmt.Close()

	for _, st := range route.Stops {
		res, err := stmt.ExecContext(ctx, st.Rank, companyID, route.ID, st.ID)
		if err != nil {
			return fmt.Errorf("apply route order %s: update stop %s: %w", route.ID, st.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return fmt.Errorf("apply route order %s: stop %s not updated (rows=%d, err=%v)", route.ID, st.ID, n, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply route order %s: commit tx: %w", route.ID, err)
	}

	route.Version++
	return nil
}

// missingRouteError distinguishes a stale version from a route that does
// not exist for this tenant.
func (s *SQLRouteRepository) missingRouteError(ctx context.Context, tx *sql.Tx, companyID, routeID string) error {
	q := fmt.Sprintf(`SELECT 1 FROM routes WHERE company_id = %s AND id = %s;`, s.ph(1), s.ph(2))

	var one int
	err := tx.QueryRowContext(ctx, q, companyID, routeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("apply route order %s: %w", routeID, ports.ErrRouteNotFound)
	}
	if err != nil {
		return fmt.Errorf("apply route order %s: check route: %w", routeID, err)
	}
	return fmt.Errorf("apply route order %s: %w", routeID, ports.ErrVersionConflict)
}
