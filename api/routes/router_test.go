package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/geo"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/angelmondragon/olist-insights/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubDashboard struct {
	ready  bool
	sides  []enums.Side
	posted []string
}

func (s *stubDashboard) Overview(context.Context, dataset.DateRange) (*dashboard.Overview, error) {
	return &dashboard.Overview{}, nil
}

func (s *stubDashboard) Trend(_ context.Context, _ dataset.DateRange, side enums.Side, _ timeseries.Locality) (*dashboard.Trend, error) {
	s.sides = append(s.sides, side)
	return &dashboard.Trend{Side: side}, nil
}

func (s *stubDashboard) Leaderboard(_ context.Context, _ dataset.DateRange, side enums.Side, _ int) (*dashboard.Leaderboard, error) {
	s.sides = append(s.sides, side)
	return &dashboard.Leaderboard{Side: side}, nil
}

func (s *stubDashboard) CategoryMix(_ context.Context, _ dataset.DateRange, side enums.Side, _, _ int) (*dashboard.CategoryMix, error) {
	return &dashboard.CategoryMix{Side: side}, nil
}

func (s *stubDashboard) RFM(_ context.Context, _ dataset.DateRange, window enums.RFMWindow) (*dashboard.RFMSection, error) {
	return &dashboard.RFMSection{Window: window}, nil
}

func (s *stubDashboard) GeoPoints(_ context.Context, _ dataset.DateRange, side enums.Side, _, _ string) ([]geo.Point, error) {
	s.sides = append(s.sides, side)
	return []geo.Point{}, nil
}

func (s *stubDashboard) CategoryCounts(_ context.Context, _ dataset.DateRange, side enums.Side, _ string) ([]geo.CategoryCount, error) {
	s.sides = append(s.sides, side)
	return []geo.CategoryCount{}, nil
}

func (s *stubDashboard) States(context.Context) (*geojson.FeatureCollection, error) {
	return geojson.NewFeatureCollection(), nil
}

func (s *stubDashboard) State(_ context.Context, uf string) (*dashboard.StateDetail, error) {
	return &dashboard.StateDetail{UF: uf}, nil
}

func (s *stubDashboard) Bounds(context.Context) (*dashboard.DateBounds, error) {
	return &dashboard.DateBounds{}, nil
}

func (s *stubDashboard) Invalidate(context.Context) error {
	s.posted = append(s.posted, "invalidate")
	return nil
}

func (s *stubDashboard) Reload(context.Context) error {
	s.posted = append(s.posted, "reload")
	return nil
}

func (s *stubDashboard) Ready() bool {
	return s.ready
}

func newTestRouter(t *testing.T, svc *stubDashboard) http.Handler {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	reg := prometheus.NewRegistry()
	metrics.NewPipelineMetrics(reg).IncReload("ok")
	return NewRouter(cfg, nil, svc, stubPinger{}, reg)
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func TestDashboardRoutes(t *testing.T) {
	svc := &stubDashboard{ready: true}
	router := newTestRouter(t, svc)

	paths := []string{
		"/api/v1/dashboard/overview?start=2018-01-01&end=2018-06-30",
		"/api/v1/dashboard/bounds",
		"/api/v1/dashboard/rfm?window=60",
		"/api/v1/dashboard/categories/cities?cities=3&categories=6&side=customer",
		"/api/v1/dashboard/sellers/trend?state=SP",
		"/api/v1/dashboard/customers/trend?city=sao%20paulo",
		"/api/v1/dashboard/sellers/leaderboard?limit=5",
		"/api/v1/dashboard/customers/leaderboard",
		"/api/v1/dashboard/geo/customers?category=beleza_saude&state=SP",
		"/api/v1/dashboard/geo/sellers",
		"/api/v1/dashboard/geo/demand",
		"/api/v1/dashboard/geo/supply?state=RJ",
		"/api/v1/dashboard/boundaries/states",
		"/api/v1/dashboard/boundaries/states/SP",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			resp := serve(router, http.MethodGet, path)
			assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
			assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
		})
	}

	assert.Equal(t, []enums.Side{
		enums.SideSeller, enums.SideCustomer,
		enums.SideSeller, enums.SideCustomer,
		enums.SideCustomer, enums.SideSeller,
		enums.SideCustomer, enums.SideSeller,
	}, svc.sides)
}

func TestDashboardActionsRequirePost(t *testing.T) {
	svc := &stubDashboard{ready: true}
	router := newTestRouter(t, svc)

	resp := serve(router, http.MethodGet, "/api/v1/dashboard/reload")
	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)

	resp = serve(router, http.MethodPost, "/api/v1/dashboard/cache/invalidate")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = serve(router, http.MethodPost, "/api/v1/dashboard/reload")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"invalidate", "reload"}, svc.posted)
}

func TestHealthRoutes(t *testing.T) {
	svc := &stubDashboard{}
	router := newTestRouter(t, svc)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/live").Code)
	require.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/health/ready").Code)

	svc.ready = true
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/ready").Code)
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, &stubDashboard{ready: true})

	resp := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "dataset_reloads_total"), string(body))
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t, &stubDashboard{ready: true})
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/v1/dashboard/unknown").Code)
}
