package sales

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/shopflow/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Reports struct {
	db *sql.DB
}

func NewReports(db *sql.DB) *Reports {
	return &Reports{db: db}
}

// CategorySales totals quantity and revenue per category, highest revenue
// first.
func (r *Reports) CategorySales(ctx context.Context, dates domain.DateRange) ([]domain.CategorySales, error) {
	if err := dates.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "sales.CategorySales", dateAttributes(dates))
	defer span.End()

	start, end := dateArgs(dates)
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, SUM(sa.quantity)::bigint, SUM(sa.revenue)::bigint
		FROM sales_aggregates sa
		JOIN categories c ON c.id = sa.category_id
		WHERE ($1::date IS NULL OR sa.sale_date >= $1::date)
		  AND ($2::date IS NULL OR sa.sale_date <= $2::date)
		GROUP BY c.id, c.name
		ORDER BY SUM(sa.revenue) DESC, c.id ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.CategorySales
	for rows.Next() {
		var cs domain.CategorySales
		if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.TotalQuantity, &cs.TotalRevenue); err != nil {
			return nil, err
		}
		results = append(results, cs)
	}
	return results, rows.Err()
}

// TopSelling returns the products with the highest quantity sold.
func (r *Reports) TopSelling(ctx context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error) {
	return r.productSales(ctx, "sales.TopSelling", "DESC", limit, dates)
}

// WorstSelling returns the products with the lowest quantity sold among those
// that sold at all in the range.
func (r *Reports) WorstSelling(ctx context.Context, limit int, dates domain.DateRange) ([]domain.ProductSales, error) {
	return r.productSales(ctx, "sales.WorstSelling", "ASC", limit, dates)
}

// productSales backs both rankings. direction is a constant from this file,
// never caller input.
func (r *Reports) productSales(ctx context.Context, spanName, direction string, limit int, dates domain.DateRange) ([]domain.ProductSales, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}
	if err := dates.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, spanName, dateAttributes(dates))
	defer span.End()
	span.SetAttributes(attribute.Int("report.limit", limit))

	start, end := dateArgs(dates)
	query := fmt.Sprintf(`
		SELECT p.id, p.name, SUM(sa.quantity)::bigint, SUM(sa.revenue)::bigint
		FROM sales_aggregates sa
		JOIN products p ON p.id = sa.product_id
		WHERE ($1::date IS NULL OR sa.sale_date >= $1::date)
		  AND ($2::date IS NULL OR sa.sale_date <= $2::date)
		GROUP BY p.id, p.name
		ORDER BY SUM(sa.quantity) %s, p.id ASC
		LIMIT $3
	`, direction)

	rows, err := r.db.QueryContext(ctx, query, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.ProductSales
	for rows.Next() {
		var ps domain.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.TotalQuantity, &ps.TotalRevenue); err != nil {
			return nil, err
		}
		results = append(results, ps)
	}
	return results, rows.Err()
}

func ValidateLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	return nil
}

func dateArgs(dates domain.DateRange) (start, end sql.NullString) {
	return nullDate(dates.Start), nullDate(dates.End)
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

func dateAttributes(dates domain.DateRange) trace.SpanStartOption {
	start, end := dateArgs(dates)
	return trace.WithAttributes(
		attribute.String("report.start_date", start.String),
		attribute.String("report.end_date", end.String),
	)
}
