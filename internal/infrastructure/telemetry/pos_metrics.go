package telemetry

import (
	"context"

	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"go.opentelemetry.io/otel/metric"
)

// MeterName names the meter of the POS business metrics
const MeterName = "sklad-pos"

// POSMetrics turns committed domain events into business metrics. It is
// subscribed to the event bus, so it only sees what actually committed.
type POSMetrics struct {
	receipts      *Counter
	salesHaler    *Counter
	receiptAmount *Histogram
	stornos       *Counter
	returns       *Counter
	refundsHaler  *Counter
	dayCloses     *Counter
	giftCardMoves *Counter
	cashBalance   *FloatGauge
	cashMovements *Counter
}

// NewPOSMetrics registers the instruments on meter
func NewPOSMetrics(meter metric.Meter) (*POSMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &POSMetrics{}
	var err error
	if m.receipts, err = NewCounter(meter, "pos.receipts.total", "Completed sale receipts", "{receipt}"); err != nil {
		return nil, err
	}
	if m.salesHaler, err = NewCounter(meter, "pos.sales.amount", "Rounded sales total in haler", "haler"); err != nil {
		return nil, err
	}
	if m.receiptAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "pos.receipt.amount",
		Description: "Rounded receipt totals",
		Unit:        "CZK",
		Boundaries:  MoneyBuckets,
	}); err != nil {
		return nil, err
	}
	if m.stornos, err = NewCounter(meter, "pos.stornos.total", "Cancelled receipts", "{receipt}"); err != nil {
		return nil, err
	}
	if m.returns, err = NewCounter(meter, "pos.returns.total", "Completed returns", "{return}"); err != nil {
		return nil, err
	}
	if m.refundsHaler, err = NewCounter(meter, "pos.refunds.amount", "Rounded refunds in haler", "haler"); err != nil {
		return nil, err
	}
	if m.dayCloses, err = NewCounter(meter, "pos.day_closes.total", "Committed daily closes", "{close}"); err != nil {
		return nil, err
	}
	if m.giftCardMoves, err = NewCounter(meter, "pos.gift_card.transitions", "Gift card state transitions", "{transition}"); err != nil {
		return nil, err
	}
	if m.cashMovements, err = NewCounter(meter, "pos.cash_register.entries", "Cash register ledger entries", "{entry}"); err != nil {
		return nil, err
	}
	if m.cashBalance, err = NewFloatGauge(meter, "pos.cash_register.balance", "Cash register balance after the last entry", "CZK"); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *POSMetrics) EventTypes() []string {
	return []string{
		trade.EventTypeReceiptCompleted,
		trade.EventTypeReceiptCancelled,
		trade.EventTypeReturnCompleted,
		closing.EventTypeDayClosed,
		giftcard.EventTypeGiftCardStatusChanged,
		cashregister.EventTypeCashRegisterUpdated,
	}
}

// Handle implements shared.EventHandler
func (m *POSMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.ReceiptCompletedEvent:
		method := AttrPaymentMethod.String(string(e.PaymentMethod))
		m.receipts.Inc(ctx, method)
		m.salesHaler.Add(ctx, e.FinalAmountRounded.Shift(2).IntPart(), method)
		m.receiptAmount.Record(ctx, e.FinalAmountRounded.InexactFloat64(), method)
	case *trade.ReceiptCancelledEvent:
		m.stornos.Inc(ctx)
	case *trade.ReturnCompletedEvent:
		m.returns.Inc(ctx)
		m.refundsHaler.Add(ctx, e.FinalRefundRounded.Shift(2).IntPart())
	case *closing.DayClosedEvent:
		m.dayCloses.Inc(ctx)
	case *giftcard.StatusChangedEvent:
		m.giftCardMoves.Inc(ctx, AttrFromStatus.String(string(e.From)), AttrToStatus.String(string(e.To)))
	case *cashregister.UpdatedEvent:
		m.cashMovements.Inc(ctx, AttrEntryType.String(string(e.EntryType)))
		m.cashBalance.Record(ctx, e.Balance.InexactFloat64())
	}
	return nil
}
