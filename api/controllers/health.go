package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/olist-insights/api/responses"
	"github.com/angelmondragon/olist-insights/pkg/config"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/angelmondragon/olist-insights/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-Olist-Env"

// ReadinessChecker reports whether the dataset is loaded.
type ReadinessChecker interface {
	Ready() bool
}

// Pinger is an optional dependency checked for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails until the dataset is loaded and, when configured, Redis answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dataset ReadinessChecker, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		if dataset == nil || !dataset.Ready() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDatasetMissing, "dataset has not been loaded"))
			return
		}
		if redis != nil {
			pingCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
			defer cancel()
			if err := redis.Ping(pingCtx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
					WithDetails(map[string]any{"dependency": "redis"}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
