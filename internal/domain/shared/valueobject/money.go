package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// Currency is an ISO 4217 code
type Currency string

const (
	CZK Currency = "CZK"
	EUR Currency = "EUR"
)

// DefaultCurrency is the currency the shop trades in. There is exactly one.
const DefaultCurrency = CZK

// Money pairs an amount with its currency. Values are immutable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney fails when currency is empty
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, shared.NewValidationError("INVALID_CURRENCY", "currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyCZK creates Money in the default currency
func NewMoneyCZK(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: DefaultCurrency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

// Add sums two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, shared.NewValidationError("CURRENCY_MISMATCH",
			fmt.Sprintf("cannot add %s to %s", other.currency, m.currency))
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// RoundCash rounds to whole currency units, the way the till pays out
func (m Money) RoundCash() Money {
	return Money{amount: RoundToWholeUnit(m.amount), currency: m.currency}
}

func (m Money) String() string {
	return m.amount.StringFixed(MoneyPlaces) + " " + string(m.currency)
}
