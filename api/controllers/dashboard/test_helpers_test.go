package dashboard

import (
	"context"

	dashboardsvc "github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/geo"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/paulmach/orb/geojson"
)

var _ dashboardsvc.Service = (*testDashboardService)(nil)

type testDashboardService struct {
	lastRange    dataset.DateRange
	lastSide     enums.Side
	lastLocality timeseries.Locality
	lastLimit    int
	lastCities   int
	lastCats     int
	lastWindow   enums.RFMWindow
	lastCategory string
	lastState    string
	lastUF       string
	calls        int
	invalidated  int
	reloaded     int
	err          error
}

func (s *testDashboardService) record(r dataset.DateRange) error {
	s.calls++
	s.lastRange = r
	return s.err
}

func (s *testDashboardService) Overview(_ context.Context, r dataset.DateRange) (*dashboardsvc.Overview, error) {
	if err := s.record(r); err != nil {
		return nil, err
	}
	return &dashboardsvc.Overview{Period: dashboardsvc.Period{Start: "2018-01-01", End: "2018-08-31"}}, nil
}

func (s *testDashboardService) Trend(_ context.Context, r dataset.DateRange, side enums.Side, loc timeseries.Locality) (*dashboardsvc.Trend, error) {
	s.lastSide, s.lastLocality = side, loc
	if err := s.record(r); err != nil {
		return nil, err
	}
	return &dashboardsvc.Trend{Side: side, State: loc.State, City: loc.City}, nil
}

func (s *testDashboardService) Leaderboard(_ context.Context, r dataset.DateRange, side enums.Side, limit int) (*dashboardsvc.Leaderboard, error) {
	s.lastSide, s.lastLimit = side, limit
	if err := s.record(r); err != nil {
		return nil, err
	}
	return &dashboardsvc.Leaderboard{Side: side}, nil
}

func (s *testDashboardService) CategoryMix(_ context.Context, r dataset.DateRange, side enums.Side, cities, categories int) (*dashboardsvc.CategoryMix, error) {
	s.lastSide, s.lastCities, s.lastCats = side, cities, categories
	if err := s.record(r); err != nil {
		return nil, err
	}
	return &dashboardsvc.CategoryMix{Side: side}, nil
}

func (s *testDashboardService) RFM(_ context.Context, r dataset.DateRange, window enums.RFMWindow) (*dashboardsvc.RFMSection, error) {
	s.lastWindow = window
	if err := s.record(r); err != nil {
		return nil, err
	}
	return &dashboardsvc.RFMSection{Window: window}, nil
}

func (s *testDashboardService) GeoPoints(_ context.Context, r dataset.DateRange, side enums.Side, category, state string) ([]geo.Point, error) {
	s.lastSide, s.lastCategory, s.lastState = side, category, state
	if err := s.record(r); err != nil {
		return nil, err
	}
	return []geo.Point{{ID: "A", State: "SP"}}, nil
}

func (s *testDashboardService) CategoryCounts(_ context.Context, r dataset.DateRange, side enums.Side, state string) ([]geo.CategoryCount, error) {
	s.lastSide, s.lastState = side, state
	if err := s.record(r); err != nil {
		return nil, err
	}
	return []geo.CategoryCount{{Category: "beleza_saude", Label: "Beleza Saude (2 Items)", Count: 2}}, nil
}

func (s *testDashboardService) States(context.Context) (*geojson.FeatureCollection, error) {
	if err := s.record(dataset.DateRange{}); err != nil {
		return nil, err
	}
	return geojson.NewFeatureCollection(), nil
}

func (s *testDashboardService) State(_ context.Context, uf string) (*dashboardsvc.StateDetail, error) {
	s.lastUF = uf
	if err := s.record(dataset.DateRange{}); err != nil {
		return nil, err
	}
	return &dashboardsvc.StateDetail{UF: uf}, nil
}

func (s *testDashboardService) Bounds(context.Context) (*dashboardsvc.DateBounds, error) {
	if err := s.record(dataset.DateRange{}); err != nil {
		return nil, err
	}
	return &dashboardsvc.DateBounds{}, nil
}

func (s *testDashboardService) Invalidate(context.Context) error {
	s.invalidated++
	return s.err
}

func (s *testDashboardService) Reload(context.Context) error {
	s.reloaded++
	return s.err
}

func (s *testDashboardService) Ready() bool {
	return s.err == nil
}
