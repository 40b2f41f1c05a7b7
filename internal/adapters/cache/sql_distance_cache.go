package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"
)

// SQLDistanceCache persists external distance results keyed by coordinate
// pair. Entries never expire; road distances between fixed points are
// stable enough for dispatch estimates.
type SQLDistanceCache struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLDistanceCache(conn *sql.DB, dialect db.Dialect) *SQLDistanceCache {
	return &SQLDistanceCache{DB: conn, Dialect: dialect}
}

func (s *SQLDistanceCache) Get(ctx context.Context, key string) (_ ports.DistanceResult, _ bool, err error) {
	defer obs.Time(ctx, "distance.cache.Get")(&err)

	if s.DB == nil {
		return ports.DistanceResult{}, false, errors.New("distance cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return ports.DistanceResult{}, false, errors.New("get distance cache: key must not be empty")
	}

	q := fmt.Sprintf(`
	SELECT miles, minutes, source
	FROM distance_cache
	WHERE pair_key = %s;
	`, s.Dialect.Placeholder(1))

	var (
		r      ports.DistanceResult
		source string
	)
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&r.Miles, &r.Minutes, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.DistanceResult{}, false, nil
	}
	if err != nil {
		return ports.DistanceResult{}, false, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	r.Source = ports.Source(source)

	return r, true, nil
}

func (s *SQLDistanceCache) Put(ctx context.Context, key string, r ports.DistanceResult) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert distance cache: key must not be empty")
	}

	q := fmt.Sprintf(`
	INSERT INTO distance_cache (pair_key, miles, minutes, source)
	VALUES (%s)
	ON CONFLICT (pair_key) DO UPDATE
	SET miles = excluded.miles,
		minutes = excluded.minutes,
		source = excluded.source;
	`, s.Dialect.Placeholders(1, 4))

	if _, err := s.DB.ExecContext(ctx, q, key, r.Miles, r.Minutes, string(r.Source)); err != nil {
		return fmt.Errorf("insert distance cache key=%q: %w", key, err)
	}

	return nil
}
