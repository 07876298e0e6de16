package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents). It crosses the JSON
// boundary as a fixed two-decimal string such as "10.00".
type Money int64

const minorUnitExp = -2

// MaxQuantity is the largest stock or line quantity the store can hold
// (INTEGER columns).
const MaxQuantity = math.MaxInt32

var ErrMoneyOverflow = errors.New("money amount out of range")

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	return moneyFromDecimal(d)
}

func moneyFromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(-minorUnitExp)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("money %s has more than two decimal places", d.String())
	}
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return 0, fmt.Errorf("%w: %s", ErrMoneyOverflow, d.String())
	}
	return Money(minor.IntPart()), nil
}

// Times is m multiplied by quantity. Callers must keep the product within
// int64; use CheckedTimes for untrusted input.
func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}

// CheckedTimes is Times that reports ErrMoneyOverflow instead of wrapping.
func (m Money) CheckedTimes(quantity int) (Money, error) {
	if m == 0 || quantity == 0 {
		return 0, nil
	}
	q := int64(quantity)
	r := int64(m) * q
	if r/q != int64(m) || (q == -1 && m == math.MinInt64) {
		return 0, fmt.Errorf("%w: %s x %d", ErrMoneyOverflow, m, quantity)
	}
	return Money(r), nil
}

// CheckedAdd is m + o that reports ErrMoneyOverflow instead of wrapping.
func (m Money) CheckedAdd(o Money) (Money, error) {
	r := m + o
	if (o > 0 && r < m) || (o < 0 && r > m) {
		return 0, fmt.Errorf("%w: %s + %s", ErrMoneyOverflow, m, o)
	}
	return r, nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), minorUnitExp)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(-minorUnitExp)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both "10.50" and 10.5.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := moneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
