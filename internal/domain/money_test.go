package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{in: "10.00", want: 1000},
		{in: "10", want: 1000},
		{in: "0.5", want: 50},
		{in: "19.99", want: 1999},
		{in: "1.999", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "100000000000000000000", wantErr: true},
		{in: "-100000000000000000000", wantErr: true},
		{in: "92233720368547758.07", want: math.MaxInt64},
		{in: "92233720368547758.08", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	t.Run("encodes as fixed two-decimal string", func(t *testing.T) {
		data, err := json.Marshal(map[string]Money{"price": 1050})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != `{"price":"10.50"}` {
			t.Errorf("unexpected json: %s", data)
		}
	})

	t.Run("decodes strings and numbers", func(t *testing.T) {
		var v struct {
			A Money `json:"a"`
			B Money `json:"b"`
		}
		if err := json.Unmarshal([]byte(`{"a":"3.25","b":7}`), &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if v.A != 325 || v.B != 700 {
			t.Errorf("expected 325 and 700, got %d and %d", v.A, v.B)
		}
	})
}

func TestOrderLineSubtotal(t *testing.T) {
	line := OrderLine{Quantity: 3, PriceAtPurchase: 1000}
	if line.Subtotal() != 3000 {
		t.Errorf("expected 3000, got %d", line.Subtotal())
	}
}

func TestDateRangeValidate(t *testing.T) {
	start := mustDate(t, "2026-03-02")
	end := mustDate(t, "2026-03-01")

	if err := (DateRange{Start: start, End: end}).Validate(); err == nil {
		t.Error("expected error when start is after end")
	}
	if err := (DateRange{Start: end, End: start}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (DateRange{Start: start}).Validate(); err != nil {
		t.Errorf("open range should be valid: %v", err)
	}
}

func TestOrderItemUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want OrderItem
	}{
		{"snake case", `{"product_id":3,"quantity":2}`, OrderItem{ProductID: 3, Quantity: 2}},
		{"camel case", `{"productId":4,"quantity":1}`, OrderItem{ProductID: 4, Quantity: 1}},
		{"missing product", `{"quantity":1}`, OrderItem{Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got OrderItem
			if err := json.Unmarshal([]byte(tt.body), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMoneyJSONRejectsOutOfRange(t *testing.T) {
	var v struct {
		Price Money `json:"price"`
	}
	err := json.Unmarshal([]byte(`{"price":"100000000000000000000"}`), &v)
	if !errors.Is(err, ErrMoneyOverflow) {
		t.Fatalf("expected ErrMoneyOverflow, got %v", err)
	}
	if v.Price != 0 {
		t.Errorf("expected price untouched, got %d", v.Price)
	}
}

func TestMoneyCheckedArithmetic(t *testing.T) {
	t.Run("times within range", func(t *testing.T) {
		got, err := Money(1000).CheckedTimes(3)
		if err != nil || got != 3000 {
			t.Errorf("expected 3000, got %d (err %v)", got, err)
		}
	})

	t.Run("times overflow", func(t *testing.T) {
		if _, err := Money(math.MaxInt64 / 2).CheckedTimes(3); !errors.Is(err, ErrMoneyOverflow) {
			t.Errorf("expected ErrMoneyOverflow, got %v", err)
		}
		if _, err := Money(math.MaxInt64).CheckedTimes(math.MaxInt32); !errors.Is(err, ErrMoneyOverflow) {
			t.Errorf("expected ErrMoneyOverflow, got %v", err)
		}
	})

	t.Run("add overflow", func(t *testing.T) {
		if _, err := Money(math.MaxInt64).CheckedAdd(1); !errors.Is(err, ErrMoneyOverflow) {
			t.Errorf("expected ErrMoneyOverflow, got %v", err)
		}
		got, err := Money(5).CheckedAdd(7)
		if err != nil || got != 12 {
			t.Errorf("expected 12, got %d (err %v)", got, err)
		}
	})
}
