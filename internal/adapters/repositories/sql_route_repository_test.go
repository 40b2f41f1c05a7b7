package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(context.Background(), conn))
	return conn
}

func seedFixture(t *testing.T, conn *sql.DB) {
	t.Helper()

	err := SeedRoutes(context.Background(), conn, db.SQLite, []RouteSeed{
		{
			ID:        "route-1",
			CompanyID: "acme",
			Name:      "Phoenix loop",
			Stops: []StopSeed{
				{ID: "s1", Address: "1901 W Madison St, Phoenix, AZ", Lat: domain.Float64(33.48), Lng: domain.Float64(-112.1)},
				{ID: "s2", Address: "Tempe, AZ", Priority: domain.Float64(80)},
				{ID: "s3", Address: "Mesa, AZ", TimeWindowStart: "08:00", TimeWindowEnd: "10:00"},
			},
		},
		{
			ID:        "route-2",
			CompanyID: "globex",
			Name:      "Tucson run",
			Stops:     []StopSeed{{ID: "g1", Address: "Tucson, AZ"}},
		},
	})
	require.NoError(t, err)
}

func TestSQLRouteRepositoryGetRoute(t *testing.T) {
	conn := openTestDB(t)
	seedFixture(t, conn)
	repo := NewSQLRouteRepository(conn, db.SQLite)
	ctx := context.Background()

	r, err := repo.GetRoute(ctx, "acme", "route-1")
	require.NoError(t, err)

	assert.Equal(t, "Phoenix loop", r.Name)
	assert.Equal(t, 1, r.Version)
	require.Len(t, r.Stops, 3)

	assert.Equal(t, "s1", r.Stops[0].ID)
	assert.Equal(t, 1, r.Stops[0].Rank)
	require.NotNil(t, r.Stops[0].Coords)
	assert.Equal(t, 33.48, r.Stops[0].Coords.Lat)
	assert.Equal(t, -112.1, r.Stops[0].Coords.Lon)

	assert.Nil(t, r.Stops[1].Coords)
	require.NotNil(t, r.Stops[1].Priority)
	assert.Equal(t, 80.0, *r.Stops[1].Priority)

	assert.Equal(t, "08:00", r.Stops[2].TimeWindowStart)

	t.Run("other tenant cannot see the route", func(t *testing.T) {
		_, err := repo.GetRoute(ctx, "globex", "route-1")
		assert.ErrorIs(t, err, ports.ErrRouteNotFound)
	})
}

func TestSQLRouteRepositoryListRoutes(t *testing.T) {
	conn := openTestDB(t)
	seedFixture(t, conn)
	repo := NewSQLRouteRepository(conn, db.SQLite)

	routes, err := repo.ListRoutes(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "route-1", routes[0].ID)

	routes, err = repo.ListRoutes(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestSQLRouteRepositoryApplyRouteOrder(t *testing.T) {
	conn := openTestDB(t)
	seedFixture(t, conn)
	repo := NewSQLRouteRepository(conn, db.SQLite)
	ctx := context.Background()

	r, err := repo.GetRoute(ctx, "acme", "route-1")
	require.NoError(t, err)

	stale, err := repo.GetRoute(ctx, "acme", "route-1")
	require.NoError(t, err)

	require.NoError(t, r.ApplyOrder(&domain.OptimizedOrder{
		Order: []domain.StopRank{
			{StopID: "s1", Rank: 1},
			{StopID: "s3", Rank: 2},
			{StopID: "s2", Rank: 3},
		},
		TotalDistanceMiles: 42.5,
		EstimatedMinutes:   75,
	}))

	require.NoError(t, repo.ApplyRouteOrder(ctx, "acme", r))
	assert.Equal(t, 2, r.Version)

	got, err := repo.GetRoute(ctx, "acme", "route-1")
	require.NoError(t, err)
	assert.Equal(t, "42.5 mi", got.Distance)
	assert.Equal(t, "1h 15m", got.EstimatedTime)
	assert.Equal(t, 2, got.Version)

	ids := make([]string, 0, len(got.Stops))
	for _, s := range got.Stops {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"s1", "s3", "s2"}, ids)

	t.Run("stale version conflicts", func(t *testing.T) {
		err := repo.ApplyRouteOrder(ctx, "acme", stale)
		assert.ErrorIs(t, err, ports.ErrVersionConflict)
	})

	t.Run("other tenant reports not found", func(t *testing.T) {
		err := repo.ApplyRouteOrder(ctx, "globex", got)
		assert.ErrorIs(t, err, ports.ErrRouteNotFound)
	})
}

func TestSeedFromJSON(t *testing.T) {
	conn := openTestDB(t)

	path := filepath.Join(t.TempDir(), "routes.json")
	body := `[{"company_id":"acme","name":"Generated ids","stops":[{"address":"A"},{"lat":33.1,"lng":-112.2}]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	require.NoError(t, SeedFromJSON(context.Background(), conn, db.SQLite, path))

	routes, err := NewSQLRouteRepository(conn, db.SQLite).ListRoutes(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.NotEmpty(t, routes[0].ID)

	t.Run("rejects stop without location", func(t *testing.T) {
		err := SeedRoutes(context.Background(), conn, db.SQLite, []RouteSeed{
			{CompanyID: "acme", Name: "bad", Stops: []StopSeed{{}}},
		})
		assert.Error(t, err)
	})
}
