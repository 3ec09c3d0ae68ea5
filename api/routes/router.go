package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/olist-insights/api/controllers"
	dashboardcontrollers "github.com/angelmondragon/olist-insights/api/controllers/dashboard"
	"github.com/angelmondragon/olist-insights/api/middleware"
	"github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/angelmondragon/olist-insights/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dashboardService dashboard.Service,
	redisClient controllers.Pinger,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dashboardService, redisClient))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Get("/overview", dashboardcontrollers.Overview(dashboardService, logg))
		r.Get("/bounds", dashboardcontrollers.Bounds(dashboardService, logg))
		r.Get("/rfm", dashboardcontrollers.RFM(dashboardService, logg))
		r.Get("/categories/cities", dashboardcontrollers.CategoryMix(dashboardService, logg))

		r.Route("/sellers", func(r chi.Router) {
			r.Get("/trend", dashboardcontrollers.Trend(dashboardService, enums.SideSeller, logg))
			r.Get("/leaderboard", dashboardcontrollers.Leaderboard(dashboardService, enums.SideSeller, logg))
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/trend", dashboardcontrollers.Trend(dashboardService, enums.SideCustomer, logg))
			r.Get("/leaderboard", dashboardcontrollers.Leaderboard(dashboardService, enums.SideCustomer, logg))
		})

		r.Route("/geo", func(r chi.Router) {
			r.Get("/customers", dashboardcontrollers.GeoPoints(dashboardService, enums.SideCustomer, logg))
			r.Get("/sellers", dashboardcontrollers.GeoPoints(dashboardService, enums.SideSeller, logg))
			r.Get("/demand", dashboardcontrollers.CategoryCounts(dashboardService, enums.SideCustomer, logg))
			r.Get("/supply", dashboardcontrollers.CategoryCounts(dashboardService, enums.SideSeller, logg))
		})

		r.Route("/boundaries/states", func(r chi.Router) {
			r.Get("/", dashboardcontrollers.States(dashboardService, logg))
			r.Get("/{uf}", dashboardcontrollers.State(dashboardService, logg))
		})

		r.Post("/cache/invalidate", dashboardcontrollers.InvalidateCache(dashboardService, logg))
		r.Post("/reload", dashboardcontrollers.Reload(dashboardService, logg))
	})

	return r
}
