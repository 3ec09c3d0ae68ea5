package dashboard

import (
	"context"
	"strings"

	"github.com/angelmondragon/olist-insights/internal/cache"
	"github.com/angelmondragon/olist-insights/pkg/boundaries"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/paulmach/orb/geojson"
)

// boundary geometries are fetched once per cache generation.
func (s *service) stateList(ctx context.Context) ([]boundaries.State, error) {
	return cache.Do(ctx, s.local, cache.Key{Section: "boundaries", Token: "states"}, func(ctx context.Context) ([]boundaries.State, error) {
		return s.boundaries.States(ctx)
	})
}

func (s *service) state(ctx context.Context, uf string) (boundaries.State, error) {
	code := strings.ToUpper(strings.TrimSpace(uf))
	if len(code) != 2 {
		return boundaries.State{}, pkgerrors.New(pkgerrors.CodeValidation, "state code must be two letters").
			WithDetails(map[string]any{"state": uf})
	}
	states, err := s.stateList(ctx)
	if err != nil {
		return boundaries.State{}, err
	}
	for _, st := range states {
		if st.UF == code {
			return st, nil
		}
	}
	return boundaries.State{}, notFoundState(code)
}

// States returns the national boundaries with each state's projected centroid.
func (s *service) States(ctx context.Context) (*geojson.FeatureCollection, error) {
	states, err := s.stateList(ctx)
	if err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	for _, st := range states {
		f := geojson.NewFeature(st.Geometry)
		f.Properties["uf"] = st.UF
		f.Properties["name"] = st.Name
		f.Properties["centroid"] = []float64{st.Centroid.Lon(), st.Centroid.Lat()}
		fc.Append(f)
	}
	return fc, nil
}

// State returns one state's centroid and its municipal boundaries.
func (s *service) State(ctx context.Context, uf string) (*StateDetail, error) {
	st, err := s.state(ctx, uf)
	if err != nil {
		return nil, err
	}
	key := cache.Key{Section: "boundaries", Token: "cities", Params: []string{st.UF}}
	cities, err := cache.Do(ctx, s.local, key, func(ctx context.Context) ([]boundaries.City, error) {
		return s.boundaries.Cities(ctx, st.UF)
	})
	if err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	for _, c := range cities {
		f := geojson.NewFeature(c.Geometry)
		f.Properties["name"] = c.Name
		fc.Append(f)
	}
	return &StateDetail{
		UF:       st.UF,
		Name:     st.Name,
		Centroid: st.Centroid,
		Cities:   fc,
	}, nil
}
