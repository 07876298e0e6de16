package domain

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSuccess OrderStatus = "success"
	OrderStatusFailed  OrderStatus = "failed"
)

// OrderItem is one requested product and quantity in a placement request.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// UnmarshalJSON also accepts the camelCase "productId" spelling used by older
// clients.
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID      int64 `json:"product_id"`
		ProductIDCamel int64 `json:"productId"`
		Quantity       int   `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	i.ProductID = raw.ProductID
	if i.ProductID == 0 {
		i.ProductID = raw.ProductIDCamel
	}
	i.Quantity = raw.Quantity
	return nil
}

// ProductSnapshot is the product as it looks now, attached to history lines.
type ProductSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

type OrderLine struct {
	ID              string           `json:"id"`
	ProductID       int64            `json:"product_id"`
	CategoryID      int64            `json:"-"`
	Quantity        int              `json:"quantity"`
	PriceAtPurchase Money            `json:"price_at_purchase"`
	Product         *ProductSnapshot `json:"product,omitempty"`
}

func (l OrderLine) Subtotal() Money {
	return l.PriceAtPurchase.Times(l.Quantity)
}

type Order struct {
	ID          string      `json:"id"`
	UserID      int64       `json:"user_id"`
	Items       []OrderLine `json:"items"`
	TotalAmount Money       `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SaleLines projects the order lines into the shape the sales aggregator folds.
func (o *Order) SaleLines() []SaleLine {
	lines := make([]SaleLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, SaleLine{
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			Quantity:   item.Quantity,
			Price:      item.PriceAtPurchase,
		})
	}
	return lines
}
