package domain

import "time"

// DateLayout is the wire and storage format of a sales day.
const DateLayout = "2006-01-02"

type SaleLine struct {
	ProductID  int64 `json:"product_id"`
	CategoryID int64 `json:"category_id"`
	Quantity   int   `json:"quantity"`
	Price      Money `json:"price"`
}

// Sale is the set of committed lines of one order, ready to be aggregated.
type Sale struct {
	OrderID  string
	PlacedAt time.Time
	Lines    []SaleLine
}

type SalesAggregate struct {
	ProductID  int64     `json:"product_id"`
	CategoryID int64     `json:"category_id"`
	Date       time.Time `json:"date"`
	Quantity   int64     `json:"quantity"`
	Revenue    Money     `json:"revenue"`
}

type CategorySales struct {
	CategoryID    int64  `json:"category_id"`
	CategoryName  string `json:"category_name"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalRevenue  Money  `json:"total_revenue"`
}

type ProductSales struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalRevenue  Money  `json:"total_revenue"`
}

// DateRange is an inclusive filter on the sales day. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return NewValidationError("start_date", "must not be after end_date")
	}
	return nil
}
