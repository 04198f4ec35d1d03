package kpihttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tallerix/tallerix/internal/kpi"
	"github.com/tallerix/tallerix/internal/platform/httpx"
)

// Handler serves the KPI dashboard endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *kpi.Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *kpi.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

type dashboardQuery struct {
	WorkshopID int64  `validate:"required,gt=0"`
	DateFrom   string `validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `validate:"omitempty,datetime=2006-01-02"`
	Month      int    `validate:"omitempty,min=1,max=12"`
	Year       int    `validate:"omitempty,min=2000,max=2100"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dashboardQuery{
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	query.WorkshopID, _ = strconv.ParseInt(q.Get("workshop_id"), 10, 64)
	query.Month, _ = strconv.Atoi(q.Get("month"))
	query.Year, _ = strconv.Atoi(q.Get("year"))
	force := q.Get("force") == "1"

	if err := h.validate.Struct(query); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	hasRange := query.DateFrom != "" || query.DateTo != ""
	hasMonth := query.Month != 0 || query.Year != 0
	if hasRange && hasMonth {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
			"date range and month/year filters are mutually exclusive")
		return
	}

	var filter kpi.FilterState
	if query.DateFrom != "" {
		from, _ := time.Parse("2006-01-02", query.DateFrom)
		filter.SetDateFrom(from)
	}
	if query.DateTo != "" {
		to, _ := time.Parse("2006-01-02", query.DateTo)
		filter.SetDateTo(to.Add(24*time.Hour - time.Nanosecond))
	}
	if query.Month != 0 {
		filter.SetMonth(time.Month(query.Month))
	}
	if query.Year != 0 {
		filter.SetYear(query.Year)
	}

	snap, err := h.service.Dashboard(r.Context(), query.WorkshopID, &filter, force)
	if err != nil {
		if err == kpi.ErrInvalidFilter {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
			return
		}
		h.logger.Error("kpi dashboard failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Aggregation Failed",
			"metrics store unavailable, resubmit the filters to retry")
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
