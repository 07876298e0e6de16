package sales

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/shopflow/internal/domain"
)

type fakeReports struct {
	category []domain.CategorySales
	products []domain.ProductSales
	err      error

	lastLimit int
	lastDates domain.DateRange
	lastCall  string
}

func (f *fakeReports) CategorySales(_ context.Context, dates domain.DateRange) ([]domain.CategorySales, error) {
	f.lastCall, f.lastDates = "category", dates
	return f.category, f.err
}

func (f *fakeReports) TopSelling(_ context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error) {
	f.lastCall, f.lastLimit, f.lastDates = "top", limit, dates
	return f.products, f.err
}

func (f *fakeReports) WorstSelling(_ context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error) {
	f.lastCall, f.lastLimit, f.lastDates = "worst", limit, dates
	return f.products, f.err
}

func newTestMux(reports ReportStore) *http.ServeMux {
	h := NewHandler(reports, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sales-report/category-wise", h.HandleCategoryWise)
	mux.HandleFunc("GET /sales-report/top-selling", h.HandleTopSelling)
	mux.HandleFunc("GET /sales-report/worst-selling", h.HandleWorstSelling)
	return mux
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_CategoryWise(t *testing.T) {
	reports := &fakeReports{category: []domain.CategorySales{
		{CategoryID: 1, CategoryName: "Books", TotalQuantity: 3, TotalRevenue: 3000},
	}}
	mux := newTestMux(reports)

	rec := get(mux, "/sales-report/category-wise?start_date=2024-01-01&end_date=2024-01-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success || len(body.Data) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Data[0]["category_name"] != "Books" || body.Data[0]["total_revenue"] != "30.00" {
		t.Errorf("unexpected row: %v", body.Data[0])
	}

	if got := reports.lastDates.Start.Format(domain.DateLayout); got != "2024-01-01" {
		t.Errorf("expected start 2024-01-01, got %s", got)
	}
	if got := reports.lastDates.End.Format(domain.DateLayout); got != "2024-01-31" {
		t.Errorf("expected end 2024-01-31, got %s", got)
	}
}

func TestHandler_ProductReports(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCall   string
		wantLimit  int
	}{
		{"camel case dates", "/sales-report/top-selling?startDate=2024-01-01&endDate=2024-01-02", http.StatusOK, "top", DefaultLimit},
		{"top default limit", "/sales-report/top-selling", http.StatusOK, "top", DefaultLimit},
		{"top explicit limit", "/sales-report/top-selling?limit=3", http.StatusOK, "top", 3},
		{"worst max limit", "/sales-report/worst-selling?limit=100", http.StatusOK, "worst", 100},
		{"limit zero", "/sales-report/top-selling?limit=0", http.StatusBadRequest, "", 0},
		{"limit too large", "/sales-report/worst-selling?limit=101", http.StatusBadRequest, "", 0},
		{"limit not a number", "/sales-report/top-selling?limit=ten", http.StatusBadRequest, "", 0},
		{"bad date", "/sales-report/top-selling?start_date=01-02-2024", http.StatusBadRequest, "", 0},
		{"start after end", "/sales-report/worst-selling?start_date=2024-02-01&end_date=2024-01-01", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := &fakeReports{}
			rec := get(newTestMux(reports), tt.path)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if reports.lastCall != tt.wantCall {
				t.Errorf("expected call %q, got %q", tt.wantCall, reports.lastCall)
			}
			if reports.lastLimit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, reports.lastLimit)
			}
		})
	}
}

func TestHandler_EmptyReportIsEmptyArray(t *testing.T) {
	rec := get(newTestMux(&fakeReports{}), "/sales-report/top-selling")

	var body struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success || body.Data == nil || len(body.Data) != 0 {
		t.Errorf("expected success with empty data, got %+v", body)
	}
}

func TestHandler_StoreFailure(t *testing.T) {
	rec := get(newTestMux(&fakeReports{err: errors.New("db gone")}), "/sales-report/category-wise")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestValidateLimit(t *testing.T) {
	for _, limit := range []int{1, 10, 100} {
		if err := ValidateLimit(limit); err != nil {
			t.Errorf("limit %d: unexpected error %v", limit, err)
		}
	}
	for _, limit := range []int{-1, 0, 101} {
		if err := ValidateLimit(limit); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("limit %d: expected validation error, got %v", limit, err)
		}
	}
}
