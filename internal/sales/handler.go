package sales

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joao-fontenele/shopflow/internal/domain"
)

type ReportStore interface {
	CategorySales(ctx context.Context, dates domain.DateRange) ([]domain.CategorySales, error)
	TopSelling(ctx context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error)
	WorstSelling(ctx context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error)
}

type Handler struct {
	reports ReportStore
	logger  *slog.Logger
}

func NewHandler(reports ReportStore, logger *slog.Logger) *Handler {
	return &Handler{
		reports: reports,
		logger:  logger,
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) HandleCategoryWise(w http.ResponseWriter, r *http.Request) {
	dates, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.reports.CategorySales(r.Context(), dates)
	if err != nil {
		h.handleReportError(w, "category-wise", err)
		return
	}

	if results == nil {
		results = []domain.CategorySales{}
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: results})
}

func (h *Handler) HandleTopSelling(w http.ResponseWriter, r *http.Request) {
	h.handleProductReport(w, r, "top-selling", h.reports.TopSelling)
}

func (h *Handler) HandleWorstSelling(w http.ResponseWriter, r *http.Request) {
	h.handleProductReport(w, r, "worst-selling", h.reports.WorstSelling)
}

type productReport func(ctx context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error)

func (h *Handler) handleProductReport(w http.ResponseWriter, r *http.Request, name string, report productReport) {
	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dates, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := report(r.Context(), limit, dates)
	if err != nil {
		h.handleReportError(w, name, err)
		return
	}

	if results == nil {
		results = []domain.ProductSales{}
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: results})
}

func (h *Handler) handleReportError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, domain.ErrValidation) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("failed to build sales report", "error", err, "report", name)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("limit", "must be an integer")
	}
	if err := ValidateLimit(limit); err != nil {
		return 0, err
	}
	return limit, nil
}

func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var dates domain.DateRange
	var err error

	if dates.Start, err = parseDate(r, "start_date", "startDate"); err != nil {
		return domain.DateRange{}, err
	}
	if dates.End, err = parseDate(r, "end_date", "endDate"); err != nil {
		return domain.DateRange{}, err
	}
	return dates, dates.Validate()
}

// parseDate reads the first of names present in the query string.
func parseDate(r *http.Request, names ...string) (time.Time, error) {
	var name, raw string
	for _, name = range names {
		if raw = r.URL.Query().Get(name); raw != "" {
			break
		}
	}
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(name, "must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, envelope{Success: false, Error: message})
}
