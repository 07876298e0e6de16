// Package domain holds the plain records and the error taxonomy shared by the
// catalog, order and sales packages.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrProductNotFound        = errors.New("product not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrOrderPlacementFailed   = errors.New("order placement failed")
	ErrSalesAggregationFailed = errors.New("sales aggregation failed")

	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category is still referenced")
	ErrDuplicateCategory = errors.New("category name already exists")
)

// ValidationError is returned for malformed requests, before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type ProductNotFoundError struct {
	ProductID int64
}

func NewProductNotFoundError(productID int64) error {
	return &ProductNotFoundError{ProductID: productID}
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InsufficientStockError is safe to retry with a smaller quantity. Available
// is -1 when the shortfall was detected by the guarded update at commit time.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func NewInsufficientStockError(productID int64, requested, available int) error {
	return &InsufficientStockError{ProductID: productID, Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	if e.Available < 0 {
		return fmt.Sprintf("insufficient stock for product %d: requested %d", e.ProductID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PlacementError wraps an unexpected storage failure during the placement
// transaction. The order was fully rolled back.
type PlacementError struct {
	Err error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("%s: %v", ErrOrderPlacementFailed, e.Err)
}

func (e *PlacementError) Is(target error) bool {
	return target == ErrOrderPlacementFailed
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}

// SalesAggregationError is raised after the order committed. The order is
// valid; only the reporting rollup is missing.
type SalesAggregationError struct {
	OrderID string
	Err     error
}

func (e *SalesAggregationError) Error() string {
	return fmt.Sprintf("%s for order %s: %v", ErrSalesAggregationFailed, e.OrderID, e.Err)
}

func (e *SalesAggregationError) Is(target error) bool {
	return target == ErrSalesAggregationFailed
}

func (e *SalesAggregationError) Unwrap() error {
	return e.Err
}
