package billinghttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the billing endpoints onto the router. The CSV export
// walks the full collection, so it carries a per-IP rate limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/billing/invoices", h.handleList)
	r.Post("/billing/invoices", h.handleCreate)
	r.Post("/billing/invoices/{id}/collected", h.handleSetCollected)
	r.Get("/billing/summary", h.handleSummary)

	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/billing/export.csv", h.handleExportCSV)
	})
}
