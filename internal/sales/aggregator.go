// Package sales folds committed order lines into per-product daily totals and
// answers the reporting queries over them.
package sales

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/shopflow/internal/domain"
	"github.com/joao-fontenele/shopflow/internal/storage"
)

var tracer = otel.Tracer("sales")

type Aggregator struct {
	db       *sql.DB
	location *time.Location
	logger   *slog.Logger
}

// NewAggregator buckets sales into days of loc. A nil loc means UTC.
func NewAggregator(db *sql.DB, loc *time.Location, logger *slog.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		db:       db,
		location: loc,
		logger:   logger,
	}
}

type productTotal struct {
	productID  int64
	categoryID int64
	quantity   int64
	revenue    domain.Money
}

// RecordSale adds the sale's lines to the aggregate row of each product for
// the day the order was placed. It is idempotent per order id: replaying an
// already applied sale changes nothing.
func (a *Aggregator) RecordSale(ctx context.Context, sale domain.Sale) error {
	day := saleDay(sale.PlacedAt, a.location)
	totals := groupLines(sale.Lines)

	ctx, span := tracer.Start(ctx, "sales.RecordSale", trace.WithAttributes(
		attribute.String("order.id", sale.OrderID),
		attribute.String("sales.day", day),
		attribute.Int("sales.product_count", len(totals)),
	))
	defer span.End()

	if len(totals) == 0 {
		return nil
	}

	var applied bool
	err := storage.RetryTransient(ctx, func() error {
		return storage.WithTx(ctx, a.db, func(tx *sql.Tx) error {
			var err error
			applied, err = markApplied(ctx, tx, sale.OrderID)
			if err != nil || !applied {
				return err
			}

			for _, t := range totals {
				if err := upsertAggregate(ctx, tx, day, t); err != nil {
					return fmt.Errorf("upsert aggregate for product %d: %w", t.productID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if !applied {
		a.logger.Info("sale already aggregated", "order_id", sale.OrderID)
		return nil
	}

	a.logger.Info("sale aggregated", "order_id", sale.OrderID, "day", day, "products", len(totals))
	return nil
}

// markApplied records the order in the ledger and reports whether this call
// was the first to do so.
func markApplied(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales_applied_orders (order_id)
		VALUES ($1)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("mark order applied: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func upsertAggregate(ctx context.Context, tx *sql.Tx, day string, t productTotal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sales_aggregates (product_id, category_id, sale_date, quantity, revenue)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, sale_date) DO UPDATE SET
			quantity = sales_aggregates.quantity + EXCLUDED.quantity,
			revenue = sales_aggregates.revenue + EXCLUDED.revenue,
			updated_at = NOW()
	`, t.productID, t.categoryID, day, t.quantity, t.revenue)
	return err
}

// groupLines merges lines per product and returns them in ascending product
// id order, the lock order shared by every writer of the aggregate table.
func groupLines(lines []domain.SaleLine) []productTotal {
	byProduct := make(map[int64]*productTotal, len(lines))
	for _, line := range lines {
		t, ok := byProduct[line.ProductID]
		if !ok {
			t = &productTotal{productID: line.ProductID, categoryID: line.CategoryID}
			byProduct[line.ProductID] = t
		}
		t.quantity += int64(line.Quantity)
		t.revenue += line.Price.Times(line.Quantity)
	}

	totals := make([]productTotal, 0, len(byProduct))
	for _, t := range byProduct {
		totals = append(totals, *t)
	}
	slices.SortFunc(totals, func(a, b productTotal) int {
		return cmp.Compare(a.productID, b.productID)
	})
	return totals
}

func saleDay(placedAt time.Time, loc *time.Location) string {
	return placedAt.In(loc).Format(domain.DateLayout)
}
