package orders

import (
	"cmp"
	"context"
	"database/sql"
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/shopflow/internal/domain"
	"github.com/joao-fontenele/shopflow/internal/storage"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order, its lines and the stock decrements as one unit.
// The order is inserted as pending and only flipped to success once every
// guarded decrement held. A decrement that finds too little stock aborts the
// whole unit with an InsufficientStockError.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return storage.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, order.ID, order.UserID, order.TotalAmount, domain.OrderStatusPending, order.CreatedAt)
		if err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.ID = uuid.New().String()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase)
				VALUES ($1, $2, $3, $4, $5)
			`, item.ID, order.ID, item.ProductID, item.Quantity, item.PriceAtPurchase)
			if err != nil {
				return err
			}
		}

		for _, d := range decrements(order.Items) {
			if err := decrementStock(ctx, tx, d.productID, d.quantity); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = $1, updated_at = NOW()
			WHERE id = $2
		`, domain.OrderStatusSuccess, order.ID)
		if err != nil {
			return err
		}

		order.Status = domain.OrderStatusSuccess
		return nil
	})
}

type decrement struct {
	productID int64
	quantity  int
}

// decrements merges lines per product and orders them by product id so that
// concurrent orders lock product rows in the same order.
func decrements(items []domain.OrderLine) []decrement {
	totals := make(map[int64]int, len(items))
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}

	out := make([]decrement, 0, len(totals))
	for id, qty := range totals {
		out = append(out, decrement{productID: id, quantity: qty})
	}
	slices.SortFunc(out, func(a, b decrement) int {
		return cmp.Compare(a.productID, b.productID)
	})
	return out
}

func decrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.NewInsufficientStockError(productID, quantity, -1)
	}

	return nil
}

// ListByUser returns the user's orders newest first with their lines and the
// current snapshot of each product.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderLine{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.price_at_purchase,
		       p.category_id, p.name, p.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.product_id, oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderLine
		snapshot := &domain.ProductSnapshot{}
		if err := itemRows.Scan(&orderID, &item.ID, &item.ProductID, &item.Quantity, &item.PriceAtPurchase,
			&item.CategoryID, &snapshot.Name, &snapshot.Price); err != nil {
			return nil, err
		}
		snapshot.ID = item.ProductID
		item.Product = snapshot

		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
