package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/shopflow/internal/domain"
)

var tracer = otel.Tracer("orders")

type ProductReader interface {
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
}

type SalesRecorder interface {
	RecordSale(ctx context.Context, sale domain.Sale) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service places orders and reads order history.
type Service struct {
	products  ProductReader
	orders    OrderStore
	sales     SalesRecorder
	publisher EventPublisher
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the workflow. publisher may be nil when no broker is
// configured.
func NewService(products ProductReader, orders OrderStore, sales SalesRecorder, publisher EventPublisher, metrics *Metrics, logger *slog.Logger) *Service {
	return &Service{
		products:  products,
		orders:    orders,
		sales:     sales,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder validates items against live stock and commits the order, its
// lines and the stock decrements atomically. The committed lines are then
// folded into the daily sales aggregates.
//
// When aggregation fails the order is still committed: the returned order is
// non-nil and the error is a *domain.SalesAggregationError. Every other error
// means nothing was persisted.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, items []domain.OrderItem) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.PlaceOrder", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int("order.item_count", len(items)),
	))
	defer span.End()

	order, err := s.placeOrder(ctx, userID, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.orderFailed(ctx, failureReason(err))
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.metrics.orderPlaced(ctx, int64(order.TotalAmount))

	if err := s.recordSale(ctx, order); err != nil {
		span.RecordError(err)
		s.metrics.salesAggregationFailed(ctx)
		s.publish(ctx, order)
		return order, err
	}

	s.publish(ctx, order)
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, userID int64, items []domain.OrderItem) (*domain.Order, error) {
	requested, err := validateItems(items)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}

	products, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, &domain.PlacementError{Err: fmt.Errorf("load products: %w", err)}
	}

	order := &domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     make([]domain.OrderLine, 0, len(items)),
		Status:    domain.OrderStatusPending,
		CreatedAt: s.now().UTC(),
	}

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, domain.NewProductNotFoundError(item.ProductID)
		}
		if want := requested[item.ProductID]; product.Stock < want {
			return nil, domain.NewInsufficientStockError(product.ID, want, product.Stock)
		}

		line := domain.OrderLine{
			ProductID:       product.ID,
			CategoryID:      product.CategoryID,
			Quantity:        item.Quantity,
			PriceAtPurchase: product.Price,
		}
		subtotal, err := line.PriceAtPurchase.CheckedTimes(line.Quantity)
		if err != nil {
			return nil, domain.NewValidationError("items", err.Error())
		}
		if order.TotalAmount, err = order.TotalAmount.CheckedAdd(subtotal); err != nil {
			return nil, domain.NewValidationError("items", err.Error())
		}
		order.Items = append(order.Items, line)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, err
		}
		return nil, &domain.PlacementError{Err: err}
	}

	return order, nil
}

// validateItems rejects malformed requests and returns the total quantity
// requested per product.
func validateItems(items []domain.OrderItem) (map[int64]int, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "must not be empty")
	}

	requested := make(map[int64]int, len(items))
	for _, item := range items {
		if item.ProductID <= 0 {
			return nil, domain.NewValidationError("product_id", "must be positive")
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("must be positive for product %d", item.ProductID))
		}
		if item.Quantity > domain.MaxQuantity || requested[item.ProductID] > domain.MaxQuantity-item.Quantity {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d for product %d", domain.MaxQuantity, item.ProductID))
		}
		requested[item.ProductID] += item.Quantity
	}
	return requested, nil
}

func (s *Service) recordSale(ctx context.Context, order *domain.Order) error {
	sale := domain.Sale{
		OrderID:  order.ID,
		PlacedAt: order.CreatedAt,
		Lines:    order.SaleLines(),
	}
	if err := s.sales.RecordSale(ctx, sale); err != nil {
		return &domain.SalesAggregationError{OrderID: order.ID, Err: err}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, order.ID, domain.NewOrderPlacedEvent(order)); err != nil {
		s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.History", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return orders, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "internal"
	}
}
