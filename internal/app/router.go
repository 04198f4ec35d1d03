package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	billinghttp "github.com/tallerix/tallerix/internal/billing/http"
	kpihttp "github.com/tallerix/tallerix/internal/kpi/http"
	"github.com/tallerix/tallerix/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	KpiHandler     *kpihttp.Handler
	BillingHandler *billinghttp.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with the default middleware chain and
// mounts every API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		if params.KpiHandler != nil {
			params.KpiHandler.MountRoutes(api)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountRoutes(api)
		}
	})

	return r
}
