// Package httptransport assembles the service's HTTP surface: public
// order routes behind JWT auth, operational routes behind the operator
// key, and the unauthenticated health and metrics endpoints.
package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	orderhandler "github.com/notorious-utopia/egrn/internal/order/handler"
	"github.com/notorious-utopia/egrn/internal/reconcile"
	"github.com/notorious-utopia/egrn/internal/transport/http/middleware"
	"github.com/notorious-utopia/egrn/internal/transport/http/shared"
)

// Reconciler triggers one reconciliation pass on demand.
type Reconciler interface {
	TriggerPass(ctx context.Context) error
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Config carries the router's wiring.
type Config struct {
	Logger          *slog.Logger
	Orders          *orderhandler.Handler
	JWTValidator    middleware.JWTValidator
	Reconciler      Reconciler
	OperatorKeyHash string
	// HealthChecks maps a dependency name to its probe. All probes must
	// pass for /healthz to report ok.
	HealthChecks map[string]HealthCheck
}

// NewRouter wires all endpoints. Every route is registered exactly once
// and guarded by exactly one auth layer.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(cfg.Logger))

	r.Get("/healthz", handleHealth(cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTValidator, cfg.Logger))
		cfg.Orders.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperatorKey(cfg.OperatorKeyHash, cfg.Logger))
		r.Post("/admin/reconcile", handleReconcile(cfg.Reconciler, cfg.Logger))
	})

	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"failed": name,
				})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleReconcile(reconciler Reconciler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := reconciler.TriggerPass(ctx); err != nil {
			if errors.Is(err, reconcile.ErrPassInFlight) {
				shared.WriteJSON(w, http.StatusConflict, map[string]string{
					"status": "skipped",
					"reason": "pass already running",
				})
				return
			}
			logger.ErrorContext(ctx, "manual reconciliation failed",
				slog.String("error", err.Error()))
			shared.WriteJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
