package dashboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/olist-insights/api/responses"
	"github.com/angelmondragon/olist-insights/api/validators"
	dashboardsvc "github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/angelmondragon/olist-insights/pkg/logger"
)

// bind parses and validates the query into dest and resolves its date range.
func bind(r *http.Request, dest any, rq *RangeQuery) (dataset.DateRange, error) {
	if err := validators.BindQuery(r, dest); err != nil {
		return dataset.DateRange{}, err
	}
	return rq.dateRange()
}

func Overview(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q RangeQuery
		rng, err := bind(r, &q, &q)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Overview(ctx, rng)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Trend serves the monthly series of one side filtered to a state or city.
func Trend(service dashboardsvc.Service, side enums.Side, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q TrendQuery
		rng, err := bind(r, &q, &q.RangeQuery)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Trend(ctx, rng, side, q.locality())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Leaderboard(service dashboardsvc.Service, side enums.Side, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q LeaderboardQuery
		rng, err := bind(r, &q, &q.RangeQuery)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Leaderboard(ctx, rng, side, q.Limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CategoryMix(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q CategoryMixQuery
		rng, err := bind(r, &q, &q.RangeQuery)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		q = q.withDefaults()
		result, err := service.CategoryMix(ctx, rng, enums.Side(q.Side), q.Cities, q.Categories)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RFM(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q RFMQuery
		rng, err := bind(r, &q, &q.RangeQuery)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.RFM(ctx, rng, q.window())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GeoPoints(service dashboardsvc.Service, side enums.Side, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q GeoQuery
		rng, err := bind(r, &q, &q.RangeQuery)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		points, err := service.GeoPoints(ctx, rng, side, q.Category, q.State)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, points)
	}
}

// CategoryCounts serves demand (customer side) or supply (seller side) counts.
func CategoryCounts(service dashboardsvc.Service, side enums.Side, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var q GeoQuery
		rng, err := bind(r, &q, &q.RangeQuery)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		counts, err := service.CategoryCounts(ctx, rng, side, q.State)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

func States(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fc, err := service.States(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, fc)
	}
}

func State(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		detail, err := service.State(ctx, chi.URLParam(r, "uf"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Bounds(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		bounds, err := service.Bounds(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, bounds)
	}
}

func InvalidateCache(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return action(logg, "cache invalidated", service.Invalidate)
}

func Reload(service dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return action(logg, "dataset reloaded", service.Reload)
}

func action(logg *logger.Logger, status string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := fn(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}
