package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bondbook/internal/bond/handler"
	"bondbook/internal/platform/metrics"
	"bondbook/internal/platform/middleware"
	dErrors "bondbook/pkg/domain-errors"
	"bondbook/pkg/platform/httputil"
	authmw "bondbook/pkg/platform/middleware/auth"
	"bondbook/pkg/platform/middleware/metadata"
	"bondbook/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type routerDeps struct {
	logger         *slog.Logger
	gatherer       prometheus.Gatherer
	metrics        *metrics.Metrics
	bonds          *handler.Handler
	validator      authmw.JWTValidator
	revocation     authmw.TokenRevocationChecker
	requestTimeout time.Duration
	health         map[string]HealthCheck
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.logger))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.LatencyMiddleware(d.metrics))

	r.Get("/healthz", healthHandler(d.health))
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(authmw.RequireAuth(d.validator, d.revocation, d.logger))
		d.bonds.Register(r)
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			httputil.WriteError(w, dErrors.WithFields(dErrors.CodeUnavailable, "dependency check failed", toFields(status)))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": status})
	}
}

func toFields(status map[string]string) map[string][]string {
	fields := make(map[string][]string, len(status))
	for name, s := range status {
		fields[name] = []string{s}
	}
	return fields
}
