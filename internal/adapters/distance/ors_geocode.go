package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"

	"go.uber.org/zap"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder resolves addresses through OpenRouteService (/geocode/search),
// consulting an optional persistent cache first.
type ORSGeocoder struct {
	client *ORSClient
	cache  ports.GeocodeCache
}

func NewORSGeocoder(client *ORSClient, cache ports.GeocodeCache) *ORSGeocoder {
	return &ORSGeocoder{client: client, cache: cache}
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (g *ORSGeocoder) ResolveCoordinates(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.geocode")(&err)

	if g.client == nil {
		return domain.Coordinates{}, ports.ErrGeocoderUnavailable
	}

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: address must be non-empty")
	}

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			zap.L().Warn("geocode cache read failed", zap.String("address", norm), zap.Error(err))
		} else if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	coords, err := g.search(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: coords}); err != nil {
			zap.L().Warn("geocode cache write failed", zap.String("address", norm), zap.Error(err))
		}
	}

	return coords, nil
}

func (g *ORSGeocoder) search(ctx context.Context, address string) (domain.Coordinates, error) {
	endpoint := g.client.baseURL + "/geocode/search"

	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("boundary.country", "US")
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: execute request: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: unexpected status: %d", address, resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	c := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: coordinates out of range", address)
	}

	return c, nil
}

// UnavailableGeocoder is used when no geocoding credential is configured.
type UnavailableGeocoder struct{}

func (UnavailableGeocoder) ResolveCoordinates(context.Context, string) (domain.Coordinates, error) {
	return domain.Coordinates{}, ports.ErrGeocoderUnavailable
}
