package valueobject

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept on stored amounts.
const MoneyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundToWholeUnit rounds to the nearest whole currency unit, half away from
// zero: 100.50 -> 101, -0.50 -> -1, 100.49 -> 100.
func RoundToWholeUnit(amount decimal.Decimal) decimal.Decimal {
	// decimal.Round is half-away-from-zero for both signs.
	return amount.Round(0)
}

// RoundingDelta is RoundToWholeUnit(amount) - amount. A positive delta means
// the customer pays (or receives) more than the exact figure.
func RoundingDelta(amount decimal.Decimal) decimal.Decimal {
	return RoundToWholeUnit(amount).Sub(amount)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// PercentOf returns round2(amount * percent / 100).
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(percent).Div(hundred))
}

// ApplyPercentDiscount returns round2(amount * (1 - percent/100)).
func ApplyPercentDiscount(amount, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return Round2(amount)
	}
	return Round2(amount.Sub(amount.Mul(percent).Div(hundred)))
}

// CashTotal is the outcome of rounding a payable amount for cash settlement.
type CashTotal struct {
	Exact    decimal.Decimal
	Rounded  decimal.Decimal
	Rounding decimal.Decimal
}

// SettleCash rounds an exact payable amount and records the delta.
func SettleCash(exact decimal.Decimal) CashTotal {
	rounded := RoundToWholeUnit(exact)
	return CashTotal{
		Exact:    exact,
		Rounded:  rounded,
		Rounding: rounded.Sub(exact),
	}
}
