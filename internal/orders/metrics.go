package orders

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	placed            metric.Int64Counter
	failed            metric.Int64Counter
	revenue           metric.Int64Counter
	aggregationFailed metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	placed, err := meter.Int64Counter("shop.orders.placed",
		metric.WithDescription("Orders committed"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter("shop.orders.failed",
		metric.WithDescription("Order placements rejected or rolled back, by reason"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64Counter("shop.orders.revenue",
		metric.WithDescription("Committed order totals in minor currency units"),
		metric.WithUnit("{cent}"))
	if err != nil {
		return nil, err
	}

	aggregationFailed, err := meter.Int64Counter("shop.sales.aggregation_failures",
		metric.WithDescription("Committed orders whose sales aggregation failed"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		placed:            placed,
		failed:            failed,
		revenue:           revenue,
		aggregationFailed: aggregationFailed,
	}, nil
}

func (m *Metrics) orderPlaced(ctx context.Context, total int64) {
	m.placed.Add(ctx, 1)
	m.revenue.Add(ctx, total)
}

func (m *Metrics) orderFailed(ctx context.Context, reason string) {
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) salesAggregationFailed(ctx context.Context) {
	m.aggregationFailed.Add(ctx, 1)
}
