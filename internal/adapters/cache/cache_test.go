package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"
	"truckmates-route-service/internal/adapters/repositories"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, repositories.InitSchema(context.Background(), conn))
	return conn
}

func TestSQLGeocodeCache(t *testing.T) {
	c := NewSQLGeocodeCache(openSQLite(t), db.SQLite)
	ctx := context.Background()

	hits, err := c.GetMany(ctx, []string{"Phoenix, AZ"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"Phoenix, AZ": {Lon: -112.07, Lat: 33.45},
		"Tempe, AZ":   {Lon: -111.94, Lat: 33.43},
	}))

	// overwrite is an upsert
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"Tempe, AZ": {Lon: -111.9, Lat: 33.4},
	}))

	hits, err = c.GetMany(ctx, []string{"Phoenix, AZ", "Tempe, AZ", "Tempe, AZ", " ", "Mesa, AZ"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{
		"Phoenix, AZ": {Lon: -112.07, Lat: 33.45},
		"Tempe, AZ":   {Lon: -111.9, Lat: 33.4},
	}, hits)

	assert.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{"  ": {}}))
}

func TestSQLDistanceCache(t *testing.T) {
	c := NewSQLDistanceCache(openSQLite(t), db.SQLite)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "a|b")
	require.NoError(t, err)
	assert.False(t, ok)

	want := ports.DistanceResult{Miles: 12.5, Minutes: 20, Source: ports.SourceExternal}
	require.NoError(t, c.Put(ctx, "a|b", want))
	require.NoError(t, c.Put(ctx, "a|b", want))

	got, ok, err := c.Get(ctx, "a|b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, _, err = c.Get(ctx, "")
	assert.Error(t, err)
}

func TestRedisDistanceCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisDistanceCache(client, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "a|b")
	require.NoError(t, err)
	assert.False(t, ok)

	want := ports.DistanceResult{Miles: 3.2, Minutes: 7.5, Source: ports.SourceExternal}
	require.NoError(t, c.Put(ctx, "a|b", want))

	got, ok, err := c.Get(ctx, "a|b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, mr.Exists(redisKeyPrefix+"a|b"))

	mr.FastForward(2 * time.Hour)

	_, ok, err = c.Get(ctx, "a|b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
