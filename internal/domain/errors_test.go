package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Run("message names the field", func(t *testing.T) {
		err := NewValidationError("items", "must not be empty")
		expected := "invalid items: must not be empty"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("matches sentinel through wrapping", func(t *testing.T) {
		err := fmt.Errorf("place order: %w", NewValidationError("quantity", "must be positive"))
		if !errors.Is(err, ErrValidation) {
			t.Error("errors.Is should match ErrValidation")
		}
		if errors.Is(err, ErrInsufficientStock) {
			t.Error("validation error must not match ErrInsufficientStock")
		}
	})
}

func TestProductNotFoundError(t *testing.T) {
	err := NewProductNotFoundError(42)
	if err.Error() != "product 42 not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, ErrProductNotFound) {
		t.Error("errors.Is should match ErrProductNotFound")
	}

	var pnf *ProductNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatal("errors.As should convert to ProductNotFoundError")
	}
	if pnf.ProductID != 42 {
		t.Errorf("expected product id 42, got %d", pnf.ProductID)
	}
}

func TestInsufficientStockError(t *testing.T) {
	t.Run("with known availability", func(t *testing.T) {
		err := NewInsufficientStockError(7, 4, 2)
		expected := "insufficient stock for product 7: requested 4, available 2"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("detected at commit time", func(t *testing.T) {
		err := NewInsufficientStockError(7, 4, -1)
		expected := "insufficient stock for product 7: requested 4"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
		if !errors.Is(err, ErrInsufficientStock) {
			t.Error("errors.Is should match ErrInsufficientStock")
		}
	})
}

func TestPlacementError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &PlacementError{Err: cause}

	if !errors.Is(err, ErrOrderPlacementFailed) {
		t.Error("errors.Is should match ErrOrderPlacementFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if err.Error() != "order placement failed: connection reset" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSalesAggregationError(t *testing.T) {
	cause := errors.New("deadlock")
	err := &SalesAggregationError{OrderID: "order-1", Err: cause}

	if !errors.Is(err, ErrSalesAggregationFailed) {
		t.Error("errors.Is should match ErrSalesAggregationFailed")
	}
	if errors.Is(err, ErrOrderPlacementFailed) {
		t.Error("aggregation failure must stay distinct from placement failure")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}
