package billinghttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallerix/tallerix/internal/billing"
	"github.com/tallerix/tallerix/internal/platform/httpx"
)

// Handler serves the invoice listing, mutation, and summary endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *billing.Service
	validate *validator.Validate
	clock    func() time.Time
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *billing.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

type createInvoiceRequest struct {
	WorkshopID int64   `json:"workshop_id" validate:"required,gt=0"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	IssueDate  string  `json:"issue_date" validate:"required,datetime=2006-01-02"`
	Concept    string  `json:"concept" validate:"required"`
	ClientID   string  `json:"client_id" validate:"required"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	issueDate, _ := time.Parse("2006-01-02", req.IssueDate)
	inv, err := h.service.CreateInvoice(r.Context(), billing.CreateInvoiceInput{
		WorkshopID: req.WorkshopID,
		Amount:     req.Amount,
		IssueDate:  issueDate,
		Concept:    req.Concept,
		ClientID:   req.ClientID,
	})
	if err != nil {
		h.logger.Error("create invoice failed", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	req, ok := h.listRequest(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	invoices, pagination, err := h.service.ListInvoicesPage(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Store Unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"invoices":   invoices,
		"pagination": pagination,
	})
}

type setCollectedRequest struct {
	Collected bool `json:"collected"`
}

type setCollectedResponse struct {
	ID        string `json:"id"`
	Collected bool   `json:"collected"`
}

func (h *Handler) handleSetCollected(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setCollectedRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	collected, err := h.service.SetCollected(r.Context(), id, req.Collected)
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice "+id)
			return
		}
		h.logger.Error("set collected failed",
			slog.String("invoice_id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Mutation Failed",
			"the change was not saved, the previous state still applies")
		return
	}
	httpx.JSON(w, http.StatusOK, setCollectedResponse{ID: id, Collected: collected})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	workshopID, err := strconv.ParseInt(r.URL.Query().Get("workshop_id"), 10, 64)
	if err != nil || workshopID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "workshop_id required")
		return
	}
	summary, err := h.service.CurrentPeriodSummary(r.Context(), workshopID)
	if err != nil {
		h.logger.Error("billing summary failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Store Unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := h.listRequest(w, r)
	if !ok {
		return
	}
	invoices, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("export invoices failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Store Unavailable", "")
		return
	}
	start, end := billing.CurrentPeriod(h.clock())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	if err := billing.ExportCSV(w, invoices, start, end, r.URL.Query().Get("locale")); err != nil {
		h.logger.Error("write csv failed", slog.Any("error", err))
	}
}

func (h *Handler) listRequest(w http.ResponseWriter, r *http.Request) (billing.ListInvoicesRequest, bool) {
	q := r.URL.Query()
	workshopID, err := strconv.ParseInt(q.Get("workshop_id"), 10, 64)
	if err != nil || workshopID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "workshop_id required")
		return billing.ListInvoicesRequest{}, false
	}
	req := billing.ListInvoicesRequest{WorkshopID: workshopID}
	if raw := q.Get("collected"); raw != "" {
		collected := raw == "true" || raw == "1"
		req.Collected = &collected
	}
	if raw := q.Get("date_from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			req.From = from
		}
	}
	if raw := q.Get("date_to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			req.To = to.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return req, true
}
