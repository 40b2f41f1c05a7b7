package distance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, attempts int) *ORSClient {
	t.Helper()
	c, err := NewORSClient("test-key", ORSOptions{
		BaseURL:     srv.URL,
		Profile:     "driving-hgv",
		MaxAttempts: attempts,
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)
	c.backoff = time.Millisecond
	return c
}

func TestNewORSClientRequiresKey(t *testing.T) {
	_, err := NewORSClient("  ", ORSOptions{})
	assert.Error(t, err)
}

func TestORSMatrixEstimator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/matrix/driving-hgv", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req matrixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int{0}, req.Sources)
		assert.Equal(t, []int{1}, req.Destinations)
		assert.Equal(t, []float64{-112.07, 33.45}, req.Locations[0])

		_, _ = w.Write([]byte(`{"distances":[[16093.44]],"durations":[[1200]]}`))
	}))
	defer srv.Close()

	e := NewORSMatrixEstimator(newTestClient(t, srv, 1))

	from := domain.Stop{ID: "a", Coords: &domain.Coordinates{Lat: 33.45, Lon: -112.07}}
	to := domain.Stop{ID: "b", Coords: &domain.Coordinates{Lat: 33.50, Lon: -112.00}}

	r, err := e.Estimate(context.Background(), from, to)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, r.Miles, 1e-9)
	assert.InDelta(t, 20.0, r.Minutes, 1e-9)
	assert.True(t, r.External())
}

func TestORSMatrixEstimatorNeedsCoordinates(t *testing.T) {
	e := NewORSMatrixEstimator(nil)
	_, err := e.Estimate(context.Background(), domain.Stop{ID: "a"}, domain.Stop{ID: "b"})
	assert.ErrorIs(t, err, ports.ErrNoEstimate)
}

func TestORSMatrixEstimatorNullCell(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"distances":[[null]],"durations":[[null]]}`))
	}))
	defer srv.Close()

	e := NewORSMatrixEstimator(newTestClient(t, srv, 1))
	c := &domain.Coordinates{Lat: 1, Lon: 1}

	_, err := e.Estimate(context.Background(), domain.Stop{ID: "a", Coords: c}, domain.Stop{ID: "b", Coords: c})
	assert.Error(t, err)
}

func TestORSClientRetry(t *testing.T) {
	t.Run("retries transient status", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"distances":[[1609.344]],"durations":[[60]]}`))
		}))
		defer srv.Close()

		e := NewORSMatrixEstimator(newTestClient(t, srv, 4))
		c := &domain.Coordinates{Lat: 1, Lon: 1}

		r, err := e.Estimate(context.Background(), domain.Stop{ID: "a", Coords: c}, domain.Stop{ID: "b", Coords: c})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, r.Miles, 1e-9)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("single attempt by default", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		e := NewORSMatrixEstimator(newTestClient(t, srv, 1))
		c := &domain.Coordinates{Lat: 1, Lon: 1}

		_, err := e.Estimate(context.Background(), domain.Stop{ID: "a", Coords: c}, domain.Stop{ID: "b", Coords: c})
		require.Error(t, err)

		var he *httpStatusError
		assert.True(t, errors.As(err, &he))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		e := NewORSMatrixEstimator(newTestClient(t, srv, 4))
		c := &domain.Coordinates{Lat: 1, Lon: 1}

		_, err := e.Estimate(context.Background(), domain.Stop{ID: "a", Coords: c}, domain.Stop{ID: "b", Coords: c})
		require.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
}

type mapGeocodeCache struct {
	m    map[string]domain.Coordinates
	puts int
}

func (c *mapGeocodeCache) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *mapGeocodeCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	for k, v := range results {
		c.m[k] = v
	}
	c.puts++
	return nil
}

func TestORSGeocoder(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "1901 W Madison St, Phoenix, AZ", r.URL.Query().Get("text"))
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-112.1,33.44]}}]}`))
	}))
	defer srv.Close()

	cache := &mapGeocodeCache{m: map[string]domain.Coordinates{}}
	g := NewORSGeocoder(newTestClient(t, srv, 1), cache)

	c, err := g.ResolveCoordinates(context.Background(), "  1901 W Madison St,   Phoenix, AZ ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lon: -112.1, Lat: 33.44}, c)
	assert.Equal(t, 1, cache.puts)

	// second lookup is served from the cache
	c2, err := g.ResolveCoordinates(context.Background(), "1901 W Madison St, Phoenix, AZ")
	require.NoError(t, err)
	assert.Equal(t, c, c2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestORSGeocoderNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	g := NewORSGeocoder(newTestClient(t, srv, 1), nil)
	_, err := g.ResolveCoordinates(context.Background(), "nowhere")
	assert.Error(t, err)
}

func TestUnavailableGeocoder(t *testing.T) {
	_, err := UnavailableGeocoder{}.ResolveCoordinates(context.Background(), "New York, NY")
	assert.ErrorIs(t, err, ports.ErrGeocoderUnavailable)

	_, err = NewORSGeocoder(nil, nil).ResolveCoordinates(context.Background(), "New York, NY")
	assert.ErrorIs(t, err, ports.ErrGeocoderUnavailable)
}
