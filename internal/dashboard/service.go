package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/olist-insights/internal/cache"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/facts"
	"github.com/angelmondragon/olist-insights/internal/geo"
	"github.com/angelmondragon/olist-insights/internal/rfm"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/boundaries"
	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/angelmondragon/olist-insights/pkg/logger"
	"github.com/angelmondragon/olist-insights/pkg/metrics"
	"github.com/paulmach/orb/geojson"
	"github.com/shopspring/decimal"
)

// Service answers every dashboard section for a date range over the loaded dataset.
type Service interface {
	Overview(ctx context.Context, r dataset.DateRange) (*Overview, error)
	Trend(ctx context.Context, r dataset.DateRange, side enums.Side, loc timeseries.Locality) (*Trend, error)
	Leaderboard(ctx context.Context, r dataset.DateRange, side enums.Side, limit int) (*Leaderboard, error)
	CategoryMix(ctx context.Context, r dataset.DateRange, side enums.Side, cities, categories int) (*CategoryMix, error)
	RFM(ctx context.Context, r dataset.DateRange, window enums.RFMWindow) (*RFMSection, error)
	GeoPoints(ctx context.Context, r dataset.DateRange, side enums.Side, category, state string) ([]geo.Point, error)
	CategoryCounts(ctx context.Context, r dataset.DateRange, side enums.Side, state string) ([]geo.CategoryCount, error)
	States(ctx context.Context) (*geojson.FeatureCollection, error)
	State(ctx context.Context, uf string) (*StateDetail, error)
	Bounds(ctx context.Context) (*DateBounds, error)
	Invalidate(ctx context.Context) error
	Reload(ctx context.Context) error
	Ready() bool
}

type tableLoader interface {
	Load(ctx context.Context) (*dataset.Tables, error)
}

type boundaryFetcher interface {
	States(ctx context.Context) ([]boundaries.State, error)
	Cities(ctx context.Context, uf string) ([]boundaries.City, error)
}

// ServiceParams wires the dashboard service.
type ServiceParams struct {
	Loader     tableLoader
	Boundaries boundaryFetcher
	Pipeline   config.PipelineConfig
	Cache      cache.Options
	Logger     *logger.Logger
	Metrics    *metrics.PipelineMetrics
}

type service struct {
	mu     sync.RWMutex
	tables *dataset.Tables

	loader     tableLoader
	boundaries boundaryFetcher
	builder    *facts.Builder
	aggregator *timeseries.Aggregator
	engine     rfm.Engine
	rjMinLng   float64

	// sections may be backed by a shared store; local holds values that
	// only make sense in-process (snapshots and boundary geometries).
	sections *cache.Memo
	local    *cache.Memo

	logg    *logger.Logger
	metrics *metrics.PipelineMetrics
}

// NewService builds the dashboard service. Tables are not read until Reload.
func NewService(params ServiceParams) (Service, error) {
	if params.Loader == nil {
		return nil, fmt.Errorf("table loader is required")
	}
	if params.Boundaries == nil {
		return nil, fmt.Errorf("boundaries client is required")
	}
	sectionOpts := params.Cache
	sectionOpts.Logger = params.Logger
	sectionOpts.Metrics = params.Metrics
	localOpts := cache.Options{
		MaxEntries: params.Cache.MaxEntries,
		TTL:        params.Cache.TTL,
		Logger:     params.Logger,
		Metrics:    params.Metrics,
	}
	return &service{
		loader:     params.Loader,
		boundaries: params.Boundaries,
		builder:    facts.NewBuilder(params.Pipeline.StrictJoins, params.Logger, params.Metrics),
		aggregator: timeseries.NewAggregator(params.Pipeline),
		engine:     rfm.Engine{FixMonetaryTier2: params.Pipeline.FixMonetaryTier2},
		rjMinLng:   params.Pipeline.RJMinLongitude,
		sections:   cache.New(sectionOpts),
		local:      cache.New(localOpts),
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Reload reads the tables from disk, swaps them in, and drops every cached section.
func (s *service) Reload(ctx context.Context) error {
	started := time.Now()
	tables, err := s.loader.Load(ctx)
	if err != nil {
		s.metrics.IncReload("failure")
		return err
	}

	s.mu.Lock()
	s.tables = tables
	s.mu.Unlock()

	for table, n := range tables.Counts() {
		s.metrics.SetRows(table, n)
	}
	s.metrics.IncReload("success")
	s.metrics.ObserveStage("reload", time.Since(started))
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"token":       tables.Token.String(),
			"duration_ms": time.Since(started).Milliseconds(),
		}), "dataset reloaded")
	}
	return s.Invalidate(ctx)
}

// Invalidate drops every cached section and snapshot.
func (s *service) Invalidate(ctx context.Context) error {
	if err := s.local.Invalidate(ctx); err != nil {
		return err
	}
	if err := s.sections.Invalidate(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate shared cache")
	}
	return nil
}

func (s *service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables != nil
}

func (s *service) current() (*dataset.Tables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tables == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDatasetMissing, "dataset has not been loaded")
	}
	return s.tables, nil
}

func (s *service) Bounds(context.Context) (*DateBounds, error) {
	tables, err := s.current()
	if err != nil {
		return nil, err
	}
	start, end, ok := dataset.PurchaseBounds(tables)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dataset has no purchase timestamps")
	}
	return &DateBounds{Start: start, End: end}, nil
}

// snapshot is the filtered tables with every fact table derived from them.
type snapshot struct {
	tables *dataset.Tables
	facts  *facts.Facts
	daily  []timeseries.DailyTransaction
	period Period
}

func (s *snapshot) key(section string, params ...string) cache.Key {
	return cache.Key{Section: section, Token: s.tables.Token.String(), Params: params}
}

func (s *service) snapshot(ctx context.Context, r dataset.DateRange) (*snapshot, error) {
	base, err := s.current()
	if err != nil {
		return nil, err
	}
	partition, err := s.partition(ctx, base)
	if err != nil {
		return nil, err
	}
	filtered := dataset.Filter(base, r)
	key := cache.Key{Section: "snapshot", Token: filtered.Token.String()}
	return cache.Do(ctx, s.local, key, func(ctx context.Context) (*snapshot, error) {
		started := time.Now()
		f, err := s.builder.Build(ctx, filtered, partition)
		if err != nil {
			return nil, err
		}
		daily := s.aggregator.DailyTransactions(filtered.Items, partition.Seller)
		s.metrics.ObserveStage("snapshot", time.Since(started))
		if s.logg != nil {
			start, end := resolveRange(base, r)
			logCtx := s.logg.WithFields(s.logg.WithDateRange(ctx, start, end), map[string]any{
				"orders":       len(filtered.Orders),
				"items":        len(filtered.Items),
				"seller_facts": len(f.Sellers),
				"order_facts":  len(f.Customers),
			})
			s.logg.Debug(logCtx, "snapshot built")
		}
		return &snapshot{
			tables: filtered,
			facts:  f,
			daily:  daily,
			period: periodOf(base, r),
		}, nil
	})
}

// partition classifies the whole order table once per load. Items are filtered by
// shipping-limit date, so their orders may fall outside the purchase-date range.
func (s *service) partition(ctx context.Context, base *dataset.Tables) (facts.Partition, error) {
	key := cache.Key{Section: "partition", Token: base.Token.String()}
	return cache.Do(ctx, s.local, key, func(context.Context) (facts.Partition, error) {
		return facts.PartitionOrders(base.Orders), nil
	})
}

// resolveRange fills open bounds with the dataset purchase extent.
func resolveRange(base *dataset.Tables, r dataset.DateRange) (time.Time, time.Time) {
	start, end := r.Start, r.End
	if first, last, ok := dataset.PurchaseBounds(base); ok {
		if start.IsZero() {
			start = first
		}
		if end.IsZero() {
			end = last
		}
	}
	return start, end
}

func periodOf(base *dataset.Tables, r dataset.DateRange) Period {
	start, end := resolveRange(base, r)
	var p Period
	if !start.IsZero() {
		p.Start = start.Format(time.DateOnly)
	}
	if !end.IsZero() {
		p.End = end.Format(time.DateOnly)
	}
	return p
}

func (s *service) Overview(ctx context.Context, r dataset.DateRange) (*Overview, error) {
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	return cache.Do(ctx, s.sections, snap.key("overview"), func(context.Context) (*Overview, error) {
		return s.buildOverview(snap), nil
	})
}

func (s *service) buildOverview(snap *snapshot) *Overview {
	revenue := decimal.Zero
	users := make(map[string]struct{}, len(snap.facts.Customers))
	for _, row := range snap.facts.Customers {
		revenue = revenue.Add(row.Payment.Sum)
		users[row.CustomerID] = struct{}{}
	}
	transactions := 0
	for _, it := range snap.tables.Items {
		if snap.facts.Partition.Seller.Contains(it.OrderID) {
			transactions++
		}
	}
	sellers := make(map[string]struct{}, len(snap.facts.Sellers))
	for _, row := range snap.facts.Sellers {
		sellers[row.SellerID] = struct{}{}
	}

	return &Overview{
		Period:              snap.period,
		Revenue:             compactKPI(revenue, "BRL"),
		Transactions:        compactKPI(decimal.NewFromInt(int64(transactions)), "Transactions"),
		ActiveUsers:         compactKPI(decimal.NewFromInt(int64(len(users))), "Users"),
		ActiveSellers:       compactKPI(decimal.NewFromInt(int64(len(sellers))), "Sellers"),
		MonthlyRevenue:      s.aggregator.MonthlyRevenue(snap.facts.Customers),
		MonthlyTransactions: s.aggregator.MonthlyTransactions(snap.daily),
		DailyTransactions:   s.aggregator.DailyCounts(snap.daily),
	}
}

func (s *service) Trend(ctx context.Context, r dataset.DateRange, side enums.Side, loc timeseries.Locality) (*Trend, error) {
	if !side.IsValid() {
		return nil, invalidSide(side)
	}
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	key := snap.key("trend", side.String(), "state="+loc.State, "city="+loc.City)
	return cache.Do(ctx, s.sections, key, func(context.Context) (*Trend, error) {
		var (
			points []timeseries.Point
			err    error
		)
		t := snap.tables
		if side == enums.SideSeller {
			points, err = s.aggregator.SellerMonthly(loc, t.Items, t.Sellers, t.Orders, snap.facts.Partition.Seller)
		} else {
			points, err = s.aggregator.CustomerMonthly(loc, t.Orders, t.Payments, t.Customers, snap.facts.Partition.Customer)
		}
		if err != nil {
			return nil, err
		}
		return &Trend{
			Side:   side,
			State:  strings.ToUpper(strings.TrimSpace(loc.State)),
			City:   strings.TrimSpace(loc.City),
			Points: points,
		}, nil
	})
}

func (s *service) RFM(ctx context.Context, r dataset.DateRange, window enums.RFMWindow) (*RFMSection, error) {
	if !window.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rfm window must be 30, 60 or 90 days").
			WithDetails(map[string]any{"window": int(window)})
	}
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	return cache.Do(ctx, s.sections, snap.key("rfm", window.String()), func(context.Context) (*RFMSection, error) {
		started := time.Now()
		res, err := s.engine.Compute(window, snap.daily, snap.facts.Customers)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveStage("rfm", time.Since(started))

		section := &RFMSection{
			Window:      window,
			Reference:   res.Reference,
			WindowStart: res.WindowStart,
			Records:     res.Records,
		}
		if section.Records == nil {
			section.Records = []rfm.Record{}
		}
		summary, err := rfm.Summarize(res)
		switch {
		case err == nil:
			section.Summary = &summary
		case pkgerrors.HasCode(err, pkgerrors.CodeEmptyWindow):
			// empty window renders as an empty cluster table
		default:
			return nil, err
		}
		return section, nil
	})
}

func invalidSide(side enums.Side) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "side must be seller or customer").
		WithDetails(map[string]any{"side": string(side)})
}
