package dashboard

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/olist-insights/internal/cache"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/rfm"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/boundaries"
	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/angelmondragon/olist-insights/pkg/logger"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	tables *dataset.Tables
	err    error
	calls  int
}

func (s *stubLoader) Load(context.Context) (*dataset.Tables, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tables, nil
}

type stubBoundaries struct {
	states     []boundaries.State
	cities     map[string][]boundaries.City
	err        error
	stateCalls int
}

func (s *stubBoundaries) States(context.Context) ([]boundaries.State, error) {
	s.stateCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.states, nil
}

func (s *stubBoundaries) Cities(_ context.Context, uf string) ([]boundaries.City, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cities[uf], nil
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func square(minLng, minLat, maxLng, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat},
	}}
}

// fixtureTables: A delivered in SP (two items), B canceled, C delivered in RJ.
func fixtureTables() *dataset.Tables {
	return &dataset.Tables{
		Customers: []dataset.Customer{
			{ID: "c1", ZipPrefix: "1001", City: "sao paulo", State: "SP"},
			{ID: "c2", ZipPrefix: "20040", City: "rio de janeiro", State: "RJ"},
		},
		Orders: []dataset.Order{
			{ID: "A", CustomerID: "c1", Status: enums.OrderStatusDelivered, PurchasedAt: at(2018, 8, 25)},
			{ID: "B", CustomerID: "c2", Status: enums.OrderStatusCanceled, PurchasedAt: at(2018, 8, 20)},
			{ID: "C", CustomerID: "c2", Status: enums.OrderStatusDelivered, PurchasedAt: at(2018, 7, 10)},
		},
		Items: []dataset.OrderItem{
			{OrderID: "A", ItemSeq: 1, ProductID: "p1", SellerID: "s1", ShippingLimit: at(2018, 8, 28), Price: dec("60"), Freight: dec("10")},
			{OrderID: "A", ItemSeq: 2, ProductID: "p2", SellerID: "s1", ShippingLimit: at(2018, 8, 28), Price: dec("40"), Freight: dec("5")},
			{OrderID: "B", ItemSeq: 1, ProductID: "p1", SellerID: "s2", ShippingLimit: at(2018, 8, 22), Price: dec("50"), Freight: dec("8")},
			{OrderID: "C", ItemSeq: 1, ProductID: "p2", SellerID: "s2", ShippingLimit: at(2018, 7, 15), Price: dec("30"), Freight: dec("4")},
		},
		Payments: []dataset.Payment{
			{OrderID: "A", Value: dec("100")},
			{OrderID: "B", Value: dec("58")},
			{OrderID: "C", Value: dec("30")},
		},
		Products: []dataset.Product{
			{ID: "p1", Category: "cama_mesa_banho"},
			{ID: "p2", Category: "beleza_saude"},
		},
		Sellers: []dataset.Seller{
			{ID: "s1", ZipPrefix: "1001", City: "sao paulo", State: "SP"},
			{ID: "s2", ZipPrefix: "20040", City: "rio de janeiro", State: "RJ"},
		},
		Geolocations: []dataset.Geolocation{
			{ZipPrefix: "1001", Lat: -23.55, Lng: -46.63},
			{ZipPrefix: "20040", Lat: -22.90, Lng: -43.17},
		},
		Token: dataset.Token(42),
	}
}

func fixtureBoundaries() *stubBoundaries {
	return &stubBoundaries{
		states: []boundaries.State{
			{UF: "RJ", Name: "Rio de Janeiro", Geometry: square(-44, -23, -42, -21), Centroid: orb.Point{-43, -22}},
			{UF: "SP", Name: "São Paulo", Geometry: square(-48, -25, -45, -22), Centroid: orb.Point{-46.5, -23.5}},
		},
		cities: map[string][]boundaries.City{
			"RJ": {{Name: "rio de janeiro", Geometry: square(-43.5, -23, -43, -22.5)}},
		},
	}
}

func newTestService(t *testing.T, loader *stubLoader, b *stubBoundaries) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Loader:     loader,
		Boundaries: b,
		Pipeline:   config.PipelineConfig{RJMinLongitude: -45},
		Cache:      cache.Options{MaxEntries: 64},
	})
	require.NoError(t, err)
	return svc.(*service)
}

func loadedService(t *testing.T) (*service, *stubLoader, *stubBoundaries) {
	t.Helper()
	loader := &stubLoader{tables: fixtureTables()}
	b := fixtureBoundaries()
	svc := newTestService(t, loader, b)
	require.NoError(t, svc.Reload(context.Background()))
	return svc, loader, b
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Boundaries: fixtureBoundaries()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Loader: &stubLoader{}})
	require.Error(t, err)
}

func TestSectionsFailBeforeReload(t *testing.T) {
	svc := newTestService(t, &stubLoader{tables: fixtureTables()}, fixtureBoundaries())
	assert.False(t, svc.Ready())

	_, err := svc.Overview(context.Background(), dataset.DateRange{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDatasetMissing))
}

func TestOverviewFullRange(t *testing.T) {
	svc, _, _ := loadedService(t)
	require.True(t, svc.Ready())

	ov, err := svc.Overview(context.Background(), dataset.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, Period{Start: "2018-07-10", End: "2018-08-25"}, ov.Period)
	assert.True(t, ov.Revenue.Value.Equal(dec("130")), "canceled order B is not revenue")
	assert.Equal(t, "0 K BRL", ov.Revenue.Display)
	assert.True(t, ov.Transactions.Value.Equal(dec("3")))
	assert.True(t, ov.ActiveUsers.Value.Equal(dec("2")))
	assert.True(t, ov.ActiveSellers.Value.Equal(dec("2")))

	require.Len(t, ov.MonthlyRevenue, 2)
	assert.Equal(t, "2018-07", ov.MonthlyRevenue[0].Period)
	assert.True(t, ov.MonthlyRevenue[1].Value.Equal(dec("100")))
	assert.Equal(t, []timeseries.CountPoint{{Period: "2018-07", Count: 1}, {Period: "2018-08", Count: 2}}, ov.MonthlyTransactions)
	assert.Equal(t, []timeseries.CountPoint{{Period: "2018-07-15", Count: 1}, {Period: "2018-08-28", Count: 2}}, ov.DailyTransactions)
}

func TestOverviewHonorsDateRange(t *testing.T) {
	svc, _, _ := loadedService(t)
	r, err := dataset.NewDateRange(at(2018, 8, 1), at(2018, 8, 31))
	require.NoError(t, err)

	ov, err := svc.Overview(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, Period{Start: "2018-08-01", End: "2018-08-31"}, ov.Period)
	assert.True(t, ov.Revenue.Value.Equal(dec("100")))
	assert.True(t, ov.Transactions.Value.Equal(dec("2")))
	assert.True(t, ov.ActiveUsers.Value.Equal(dec("1")))
	assert.True(t, ov.ActiveSellers.Value.Equal(dec("1")))
}

func TestOverviewCountsItemsOfOrdersPurchasedBeforeRange(t *testing.T) {
	tables := fixtureTables()
	tables.Orders = append(tables.Orders, dataset.Order{ID: "D", CustomerID: "c2", Status: enums.OrderStatusDelivered, PurchasedAt: at(2018, 7, 31)})
	tables.Items = append(tables.Items, dataset.OrderItem{OrderID: "D", ItemSeq: 1, ProductID: "p2", SellerID: "s2", ShippingLimit: at(2018, 8, 3), Price: dec("20"), Freight: dec("3")})
	svc := newTestService(t, &stubLoader{tables: tables}, fixtureBoundaries())
	require.NoError(t, svc.Reload(context.Background()))

	r, err := dataset.NewDateRange(at(2018, 8, 1), at(2018, 8, 31))
	require.NoError(t, err)
	ov, err := svc.Overview(context.Background(), r)
	require.NoError(t, err)

	assert.True(t, ov.Transactions.Value.Equal(dec("3")), "got %s", ov.Transactions.Value)
	assert.True(t, ov.ActiveSellers.Value.Equal(dec("2")), "got %s", ov.ActiveSellers.Value)
	assert.True(t, ov.ActiveUsers.Value.Equal(dec("1")))
	assert.Equal(t, []timeseries.CountPoint{{Period: "2018-08-03", Count: 1}, {Period: "2018-08-28", Count: 2}}, ov.DailyTransactions)

	board, err := svc.Leaderboard(context.Background(), r, enums.SideSeller, 5)
	require.NoError(t, err)
	require.Len(t, board.States, 2)
}

func TestSnapshotLogsResolvedRange(t *testing.T) {
	buf := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Loader:     &stubLoader{tables: fixtureTables()},
		Boundaries: fixtureBoundaries(),
		Cache:      cache.Options{MaxEntries: 8},
		Logger:     logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf}),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Reload(context.Background()))

	r, err := dataset.NewDateRange(at(2018, 8, 1), time.Time{})
	require.NoError(t, err)
	_, err = svc.Overview(context.Background(), r)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"range_start":"2018-08-01"`)
	assert.Contains(t, buf.String(), `"range_end":"2018-08-25"`, "open end resolves to the last purchase day")
}

func TestSectionsAreMemoizedUntilInvalidated(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	first, err := svc.Overview(ctx, dataset.DateRange{})
	require.NoError(t, err)
	second, err := svc.Overview(ctx, dataset.DateRange{})
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, svc.Invalidate(ctx))
	third, err := svc.Overview(ctx, dataset.DateRange{})
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first, third)
}

func TestReloadSwapsTables(t *testing.T) {
	svc, loader, _ := loadedService(t)
	ctx := context.Background()

	before, err := svc.Overview(ctx, dataset.DateRange{})
	require.NoError(t, err)

	next := fixtureTables()
	next.Payments[0].Value = dec("200")
	next.Token = dataset.Token(43)
	loader.tables = next
	require.NoError(t, svc.Reload(ctx))
	assert.Equal(t, 2, loader.calls)

	after, err := svc.Overview(ctx, dataset.DateRange{})
	require.NoError(t, err)
	assert.True(t, before.Revenue.Value.Equal(dec("130")))
	assert.True(t, after.Revenue.Value.Equal(dec("230")))
}

func TestReloadFailureKeepsPreviousTables(t *testing.T) {
	svc, loader, _ := loadedService(t)
	loader.err = pkgerrors.New(pkgerrors.CodeDataLoad, "bad csv")

	err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDataLoad))
	assert.True(t, svc.Ready())
}

func TestTrendBySide(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	sellers, err := svc.Trend(ctx, dataset.DateRange{}, enums.SideSeller, timeseries.Locality{State: "sp"})
	require.NoError(t, err)
	assert.Equal(t, "SP", sellers.State)
	require.Len(t, sellers.Points, 1)
	assert.Equal(t, "2018-08", sellers.Points[0].Period)
	assert.True(t, sellers.Points[0].Value.Equal(dec("100")))

	customers, err := svc.Trend(ctx, dataset.DateRange{}, enums.SideCustomer, timeseries.Locality{City: "rio de janeiro"})
	require.NoError(t, err)
	require.Len(t, customers.Points, 1)
	assert.Equal(t, "2018-07", customers.Points[0].Period)

	_, err = svc.Trend(ctx, dataset.DateRange{}, enums.SideSeller, timeseries.Locality{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Trend(ctx, dataset.DateRange{}, enums.Side("vendor"), timeseries.Locality{State: "SP"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestLeaderboardAndCategoryMix(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	board, err := svc.Leaderboard(ctx, dataset.DateRange{}, enums.SideSeller, 0)
	require.NoError(t, err)
	require.Len(t, board.States, 2)
	assert.Equal(t, "SP", board.States[0].Key)
	assert.Equal(t, 1, board.States[0].Members)
	assert.True(t, board.States[0].Total.Equal(dec("100")))

	mix, err := svc.CategoryMix(ctx, dataset.DateRange{}, enums.SideCustomer, 2, 2)
	require.NoError(t, err)
	require.Len(t, mix.Cities, 2)
	assert.Equal(t, "sao paulo", mix.Cities[0].City)
	assert.Len(t, mix.Cities[0].Categories, 2)
}

func TestRFMSection(t *testing.T) {
	svc, _, _ := loadedService(t)

	section, err := svc.RFM(context.Background(), dataset.DateRange{}, enums.RFMWindow30)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 8, 28, 0, 0, 0, 0, time.UTC), section.Reference)
	require.Len(t, section.Records, 1, "order C falls outside the 30 day window")

	rec := section.Records[0]
	assert.Equal(t, "A", rec.OrderID)
	assert.Equal(t, 2, rec.Frequency)
	assert.Equal(t, 3, rec.ScoreRec)
	assert.Equal(t, 5, rec.ScoreMonet)
	assert.Equal(t, rfm.ClusterFirst, rec.Cluster)

	require.NotNil(t, section.Summary)
	assert.Equal(t, 2, section.Summary.AverageFrequency)
	assert.Equal(t, 1, section.Summary.Distribution[0].Orders)
}

func TestRFMEmptyWindowIsEmptySection(t *testing.T) {
	svc, _, _ := loadedService(t)
	r, err := dataset.NewDateRange(at(2017, 1, 1), at(2017, 1, 31))
	require.NoError(t, err)

	section, err := svc.RFM(context.Background(), r, enums.RFMWindow90)
	require.NoError(t, err)
	assert.Nil(t, section.Summary)
	assert.Empty(t, section.Records)

	_, err = svc.RFM(context.Background(), r, enums.RFMWindow(45))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGeoPointsFilters(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	points, err := svc.GeoPoints(ctx, dataset.DateRange{}, enums.SideCustomer, "Cama Mesa Banho (1 Items)", "")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "A", points[0].ID)

	points, err = svc.GeoPoints(ctx, dataset.DateRange{}, enums.SideCustomer, "", "rj")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "C", points[0].ID)

	_, err = svc.GeoPoints(ctx, dataset.DateRange{}, enums.SideSeller, "", "XX")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCategoryCounts(t *testing.T) {
	svc, _, _ := loadedService(t)
	ctx := context.Background()

	demand, err := svc.CategoryCounts(ctx, dataset.DateRange{}, enums.SideCustomer, "")
	require.NoError(t, err)
	require.Len(t, demand, 2)
	assert.Equal(t, "beleza_saude", demand[0].Category)
	assert.Equal(t, 2, demand[0].Count)
	assert.Equal(t, "Beleza Saude (2 Items)", demand[0].Label)

	supply, err := svc.CategoryCounts(ctx, dataset.DateRange{}, enums.SideSeller, "")
	require.NoError(t, err)
	require.Len(t, supply, 2)
	assert.Equal(t, "Beleza Saude (2 Sellers)", supply[0].Label)
}

func TestBoundariesAreMemoized(t *testing.T) {
	svc, _, b := loadedService(t)
	ctx := context.Background()

	fc, err := svc.States(ctx)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "RJ", fc.Features[0].Properties["uf"])

	detail, err := svc.State(ctx, "rj")
	require.NoError(t, err)
	assert.Equal(t, "Rio de Janeiro", detail.Name)
	assert.Equal(t, orb.Point{-43, -22}, detail.Centroid)
	require.Len(t, detail.Cities.Features, 1)
	assert.Equal(t, "rio de janeiro", detail.Cities.Features[0].Properties["name"])
	assert.Equal(t, 1, b.stateCalls)

	_, err = svc.State(ctx, "R")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestBoundariesFailureSurfaces(t *testing.T) {
	loader := &stubLoader{tables: fixtureTables()}
	b := fixtureBoundaries()
	b.err = pkgerrors.New(pkgerrors.CodeRemoteFetch, "boundaries unavailable")
	svc := newTestService(t, loader, b)

	_, err := svc.States(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteFetch))
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestBounds(t *testing.T) {
	svc, _, _ := loadedService(t)
	bounds, err := svc.Bounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, at(2018, 7, 10), bounds.Start)
	assert.Equal(t, at(2018, 8, 25), bounds.End)
}
