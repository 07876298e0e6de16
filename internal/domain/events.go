package domain

import "time"

type OrderPlacedEvent struct {
	OrderID     string     `json:"order_id"`
	UserID      int64      `json:"user_id"`
	Lines       []SaleLine `json:"lines"`
	TotalAmount Money      `json:"total_amount"`
	Timestamp   time.Time  `json:"timestamp"`
}

func NewOrderPlacedEvent(order *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Lines:       order.SaleLines(),
		TotalAmount: order.TotalAmount,
		Timestamp:   order.CreatedAt,
	}
}

func (e OrderPlacedEvent) Sale() Sale {
	return Sale{
		OrderID:  e.OrderID,
		PlacedAt: e.Timestamp,
		Lines:    e.Lines,
	}
}
