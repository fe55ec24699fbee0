package valueobject

import (
	"sort"

	"github.com/shopspring/decimal"
)

// IsValidVatRate reports whether rate is a usable percentage in [0, 100].
func IsValidVatRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// SplitVat decomposes a VAT-inclusive amount into net and VAT parts:
// net = gross / (1 + rate/100), vat = gross - net.
//
// A rate outside [0, 100] yields the whole amount as net with zero VAT. That
// is a fallback for bad catalog data, not a business rule; callers that can
// reject the rate should check IsValidVatRate first.
func SplitVat(gross, rate decimal.Decimal) (net, vat decimal.Decimal) {
	if !IsValidVatRate(rate) || rate.IsZero() {
		return gross, decimal.Zero
	}
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	net = Round2(gross.DivRound(divisor, 8))
	return net, gross.Sub(net)
}

// VatLine is the VAT-relevant part of one receipt or return line.
type VatLine struct {
	Rate  decimal.Decimal
	Gross decimal.Decimal
}

// VatBucket is the aggregate for one VAT rate.
type VatBucket struct {
	Rate  decimal.Decimal `json:"rate"`
	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
	Vat   decimal.Decimal `json:"vat"`
}

// VatBreakdown groups lines by rate and decomposes each group's gross total.
// Buckets come back sorted by rate ascending.
func VatBreakdown(lines []VatLine) []VatBucket {
	byRate := make(map[string]*VatBucket)
	for _, l := range lines {
		key := l.Rate.StringFixed(2)
		b, ok := byRate[key]
		if !ok {
			b = &VatBucket{Rate: l.Rate, Gross: decimal.Zero}
			byRate[key] = b
		}
		b.Gross = b.Gross.Add(l.Gross)
	}

	buckets := make([]VatBucket, 0, len(byRate))
	for _, b := range byRate {
		b.Net, b.Vat = SplitVat(b.Gross, b.Rate)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Rate.LessThan(buckets[j].Rate)
	})
	return buckets
}

// SumVat totals the VAT of all buckets.
func SumVat(buckets []VatBucket) decimal.Decimal {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Vat)
	}
	return total
}
