package dashboard

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/olist-insights/internal/cache"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/facts"
	"github.com/angelmondragon/olist-insights/internal/geo"
	"github.com/angelmondragon/olist-insights/internal/rankings"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
)

func (s *service) Leaderboard(ctx context.Context, r dataset.DateRange, side enums.Side, limit int) (*Leaderboard, error) {
	if !side.IsValid() {
		return nil, invalidSide(side)
	}
	if limit <= 0 {
		limit = rankings.DefaultLimit
	}
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	key := snap.key("leaderboard", side.String(), strconv.Itoa(limit))
	return cache.Do(ctx, s.sections, key, func(context.Context) (*Leaderboard, error) {
		board := &Leaderboard{Side: side}
		if side == enums.SideSeller {
			board.States = rankings.SellerStates(snap.facts.Sellers, limit)
			board.Cities = rankings.SellerCities(snap.facts.Sellers, limit)
		} else {
			board.States = rankings.CustomerStates(snap.facts.Customers, limit)
			board.Cities = rankings.CustomerCities(snap.facts.Customers, limit)
		}
		return board, nil
	})
}

func (s *service) CategoryMix(ctx context.Context, r dataset.DateRange, side enums.Side, cities, categories int) (*CategoryMix, error) {
	if !side.IsValid() {
		return nil, invalidSide(side)
	}
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	key := snap.key("category_mix", side.String(), strconv.Itoa(cities), strconv.Itoa(categories))
	return cache.Do(ctx, s.sections, key, func(context.Context) (*CategoryMix, error) {
		var (
			entries []rankings.Entry
			lines   facts.Lines
		)
		if side == enums.SideSeller {
			entries = rankings.SellerCities(snap.facts.Sellers, cities)
			lines = snap.facts.SellerPivot.Lines
		} else {
			entries = rankings.CustomerCities(snap.facts.Customers, cities)
			lines = snap.facts.OrderPivot.Lines
		}
		return &CategoryMix{
			Side:   side,
			Cities: rankings.CategoryMix(entries, lines, cities, categories),
		}, nil
	})
}

func (s *service) layer(snap *snapshot, side enums.Side) geo.Layer {
	started := time.Now()
	defer func() { s.metrics.ObserveStage("geo", time.Since(started)) }()
	if side == enums.SideSeller {
		return geo.SellerPoints(snap.facts.Sellers, snap.facts.SellerPivot.Lines, snap.tables.Geolocations, s.rjMinLng)
	}
	return geo.CustomerPoints(snap.facts.Customers, snap.facts.OrderPivot.Lines, snap.tables.Geolocations, s.rjMinLng)
}

// scopedLayer applies the optional state polygon filter to a side's layer.
func (s *service) scopedLayer(ctx context.Context, snap *snapshot, side enums.Side, state string) (geo.Layer, error) {
	layer := s.layer(snap, side)
	if strings.TrimSpace(state) == "" {
		return layer, nil
	}
	st, err := s.state(ctx, state)
	if err != nil {
		return geo.Layer{}, err
	}
	return layer.WithinState(st.Geometry), nil
}

func (s *service) GeoPoints(ctx context.Context, r dataset.DateRange, side enums.Side, category, state string) ([]geo.Point, error) {
	if !side.IsValid() {
		return nil, invalidSide(side)
	}
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	key := snap.key("geo_points", side.String(), geo.NormalizeCategory(category), strings.ToUpper(state))
	return cache.Do(ctx, s.sections, key, func(ctx context.Context) ([]geo.Point, error) {
		layer, err := s.scopedLayer(ctx, snap, side, state)
		if err != nil {
			return nil, err
		}
		return layer.FilterCategory(category).Points, nil
	})
}

// CategoryCounts returns demand counts for customers and supply counts for sellers.
func (s *service) CategoryCounts(ctx context.Context, r dataset.DateRange, side enums.Side, state string) ([]geo.CategoryCount, error) {
	if !side.IsValid() {
		return nil, invalidSide(side)
	}
	snap, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	key := snap.key("category_counts", side.String(), strings.ToUpper(state))
	return cache.Do(ctx, s.sections, key, func(ctx context.Context) ([]geo.CategoryCount, error) {
		layer, err := s.scopedLayer(ctx, snap, side, state)
		if err != nil {
			return nil, err
		}
		if side == enums.SideSeller {
			return geo.SupplyCounts(layer), nil
		}
		return geo.DemandCounts(layer), nil
	})
}

func notFoundState(uf string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "state not found").
		WithDetails(map[string]any{"state": uf})
}
