package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"
)

const (
	metersPerMile = 1609.344
	secondsPerMin = 60.0
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// ORSMatrixEstimator is the external routing tier. It needs coordinates on
// both ends; stops that could not be geocoded fall through to later tiers.
type ORSMatrixEstimator struct {
	client *ORSClient
}

func NewORSMatrixEstimator(client *ORSClient) *ORSMatrixEstimator {
	return &ORSMatrixEstimator{client: client}
}

func (e *ORSMatrixEstimator) Estimate(ctx context.Context, from, to domain.Stop) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.matrix")(&err)

	if e.client == nil || from.Coords == nil || to.Coords == nil {
		return ports.DistanceResult{}, ports.ErrNoEstimate
	}

	row, err := e.fetchMatrixRow(ctx, *from.Coords, []domain.Coordinates{*to.Coords})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("ORS matrix %s -> %s: %w", from.ID, to.ID, err)
	}

	return row[0], nil
}

// fetchMatrixRow retrieves distance and duration from one origin to many
// destinations using the OpenRouteService matrix endpoint, converting
// meters/seconds to miles/minutes.
func (e *ORSMatrixEstimator) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) ([]ports.DistanceResult, error) {
	if len(destinations) == 0 {
		return []ports.DistanceResult{}, nil
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", e.client.baseURL, e.client.profile)

	locations := make([][]float64, 0, 1+len(destinations))
	locations = append(locations, origin.CoordsToList())
	for _, c := range destinations {
		locations = append(locations, c.CoordsToList())
	}

	destIdx := make([]int, 0, len(destinations))
	for i := 1; i < len(locations); i++ {
		destIdx = append(destIdx, i)
	}

	payload, err := json.Marshal(matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance", "duration"},
		Sources:      []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := e.client.doWithRetry(ctx, func() (*http.Request, error) {
		return e.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matrix request: unexpected status: %d", resp.StatusCode)
	}

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 || len(mr.Durations) != 1 {
		return nil, fmt.Errorf(
			"expected 1 source row; got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations),
		)
	}

	rowDistances := mr.Distances[0]
	rowDurations := mr.Durations[0]

	if len(rowDistances) != len(destinations) || len(rowDurations) != len(destinations) {
		return nil, fmt.Errorf(
			"row lengths do not match destinations: distances=%d durations=%d destinations=%d",
			len(rowDistances), len(rowDurations), len(destinations),
		)
	}

	out := make([]ports.DistanceResult, 0, len(destinations))
	for i := range destinations {
		metersPtr := rowDistances[i]
		secondsPtr := rowDurations[i]

		// ORS reports unroutable pairs as null.
		if metersPtr == nil || secondsPtr == nil {
			return nil, fmt.Errorf("matrix returned no route for destination %d", i)
		}

		out = append(out, ports.DistanceResult{
			Miles:   *metersPtr / metersPerMile,
			Minutes: *secondsPtr / secondsPerMin,
			Source:  ports.SourceExternal,
		})
	}

	return out, nil
}
