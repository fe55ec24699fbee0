package closing

import (
	"sort"
	"time"

	"github.com/sklad/pos/internal/domain/trade"
)

// Summarize aggregates one business day. Storno receipts carry negated
// amounts and are added as they are. Refunds are always paid out in cash,
// so they reduce the cash bucket whatever the original payment method was.
func Summarize(date time.Time, receipts []trade.Receipt, returns []trade.SalesReturn) SalesSummary {
	s := NewSalesSummary(date)

	sorted := make([]trade.Receipt, len(receipts))
	copy(sorted, receipts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	for _, r := range sorted {
		if r.IsStorno {
			s.StornoCount++
		} else {
			s.ReceiptCount++
		}
		switch r.PaymentMethod {
		case trade.PaymentMethodCard:
			s.CardSales = s.CardSales.Add(r.FinalAmountRounded)
		default:
			s.CashSales = s.CashSales.Add(r.FinalAmountRounded)
		}
		s.VatTotal = s.VatTotal.Add(r.TotalVat)
	}
	if len(sorted) > 0 {
		s.FirstReceiptNumber = sorted[0].ReceiptNumber
		s.LastReceiptNumber = sorted[len(sorted)-1].ReceiptNumber
	}

	for _, ret := range returns {
		s.ReturnCount++
		s.RefundTotal = s.RefundTotal.Add(ret.FinalRefundRounded)
		s.CashSales = s.CashSales.Sub(ret.FinalRefundRounded)
		s.VatTotal = s.VatTotal.Sub(ret.TotalVat)
	}

	s.TotalSales = s.CashSales.Add(s.CardSales)
	return s
}
