package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"truckmates-route-service/internal/adapters/distance"
	"truckmates-route-service/internal/adapters/repositories"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *string         `json:"error"`
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func tokenFor(t *testing.T, companyID string) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"company_id": companyID,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(ctx, conn))

	require.NoError(t, repositories.SeedRoutes(ctx, conn, db.SQLite, []repositories.RouteSeed{
		{
			ID:        "route-1",
			CompanyID: "acme",
			Name:      "Valley loop",
			Stops: []repositories.StopSeed{
				{ID: "A", Address: "Phoenix, AZ"},
				{ID: "B", Address: "Mesa, AZ"},
				{ID: "C", Address: "Tempe, AZ"},
			},
		},
		{
			ID:        "route-2",
			CompanyID: "acme",
			Name:      "Single drop",
			Stops:     []repositories.StopSeed{{ID: "S", Address: "Tucson, AZ"}},
		},
	}))

	est := distance.NewStubEstimator([]distance.StubPair{
		{From: "A", To: "B", Miles: 50, Minutes: 60},
		{From: "A", To: "C", Miles: 10, Minutes: 12},
		{From: "C", To: "B", Miles: 45, Minutes: 54},
	})

	return NewRouter(Deps{
		Repo:      repositories.NewSQLRouteRepository(conn, db.SQLite),
		Sequencer: services.NewSequencer(nil, est, 2),
		Geocoder:  distance.UnavailableGeocoder{},
		Estimator: distance.NewDefaultChain(distance.ChainOptions{SpeedMPH: 50, PlaceholderMiles: 100}),
		JWTSecret: testSecret,
	})
}

func do(t *testing.T, h http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.Error)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, env = do(t, h, http.MethodPost, "/health", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	require.NotNil(t, env.Error)
}

func TestAuthRequired(t *testing.T) {
	h := newTestRouter(t)

	cases := map[string]string{
		"missing":       "",
		"wrong secret":  signToken(t, "other", jwt.MapClaims{"company_id": "acme"}),
		"no company id": signToken(t, testSecret, jwt.MapClaims{"sub": "driver-7"}),
		"expired": signToken(t, testSecret, jwt.MapClaims{
			"company_id": "acme",
			"exp":        time.Now().Add(-time.Hour).Unix(),
		}),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodGet, "/routes", token, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "unauthorized", *env.Error)
		})
	}
}

func TestListRoutesIsTenantScoped(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/routes", tokenFor(t, "acme"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Routes []struct {
			ID string `json:"id"`
		} `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Len(t, res.Routes, 2)

	_, env = do(t, h, http.MethodGet, "/routes", tokenFor(t, "globex"), "")
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Empty(t, res.Routes)
}

func TestOptimizeOrderEndpoint(t *testing.T) {
	h := newTestRouter(t)
	token := tokenFor(t, "acme")

	body := `{"stops":[{"id":"A","address":"Phoenix, AZ"},{"id":"B","address":"Mesa, AZ"},{"id":"C","address":"Tempe, AZ"}]}`
	rec, env := do(t, h, http.MethodPost, "/routes/optimize-order", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `{
		"optimizedOrder":[{"stopId":"A","rank":1},{"stopId":"C","rank":2},{"stopId":"B","rank":3}],
		"totalDistance":55,
		"estimatedTime":66,
		"usedExternalAPI":true
	}`, string(env.Data))

	t.Run("rejects bad bodies", func(t *testing.T) {
		for _, b := range []string{
			`{"stops":[{"id":"A"}]}`,
			`{"stops":[{"id":"A","address":"x","lat":1}]}`,
			`{"stops":[{"id":"A","address":"x"},{"id":"A","address":"y"}]}`,
			`{"stops":[],"extra":1}`,
			`{"stops":[]}{"stops":[]}`,
			`not json`,
		} {
			rec, env := do(t, h, http.MethodPost, "/routes/optimize-order", token, b)
			assert.Equal(t, http.StatusBadRequest, rec.Code, b)
			assert.NotNil(t, env.Error, b)
		}
	})
}

func TestOptimizeRouteEndpoint(t *testing.T) {
	h := newTestRouter(t)
	token := tokenFor(t, "acme")

	rec, env := do(t, h, http.MethodPost, "/routes/route-1/optimize", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"optimized":true,
		"optimizedStops":[{"stopId":"A","rank":1},{"stopId":"C","rank":2},{"stopId":"B","rank":3}],
		"distance":"55.0 mi",
		"time":"1h 6m",
		"usedExternalAPI":true
	}`, string(env.Data))

	rec, env = do(t, h, http.MethodPost, "/routes/route-2/optimize", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"optimized":false,"usedExternalAPI":false,"error":"Not enough stops to optimize"}`, string(env.Data))

	rec, _ = do(t, h, http.MethodPost, "/routes/route-1/optimize", tokenFor(t, "globex"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/routes/route-1/optimize", token, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDistanceEndpoint(t *testing.T) {
	h := newTestRouter(t)
	token := tokenFor(t, "acme")

	rec, env := do(t, h, http.MethodGet, "/distance?origin=New+York,+NY&destination=Los+Angeles,+CA", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"distance":100,
		"duration":120,
		"usedExternalAPI":false,
		"error":"Distance API not configured; using estimated distance"
	}`, string(env.Data))

	rec, _ = do(t, h, http.MethodGet, "/distance?origin=New+York,+NY", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
