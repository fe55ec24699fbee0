package telemetry_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"github.com/sklad/pos/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		label := ""
		if v, ok := dp.Attributes.Value(key); ok {
			label = v.Emit()
		}
		out[label] += dp.Value
	}
	return out
}

func TestPOSMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewPOSMetrics(provider.Meter(telemetry.MeterName))
	require.NoError(t, err)
	assert.Len(t, m.EventTypes(), 6)

	ctx := context.Background()
	events := []shared.DomainEvent{
		trade.NewReceiptCompletedEvent(&trade.Receipt{
			ReceiptNumber: "2025-000001", PaymentMethod: trade.PaymentMethodCash,
			FinalAmountRounded: decimal.NewFromInt(122),
		}),
		trade.NewReceiptCompletedEvent(&trade.Receipt{
			ReceiptNumber: "2025-000002", PaymentMethod: trade.PaymentMethodCard,
			FinalAmountRounded: decimal.RequireFromString("59.90"),
		}),
		trade.NewReceiptCancelledEvent(&trade.Receipt{ReceiptNumber: "2025-000003"}),
		trade.NewReturnCompletedEvent(&trade.SalesReturn{
			ReturnNumber: "R2025-000001", FinalRefundRounded: decimal.NewFromInt(61),
		}),
		closing.NewDayClosedEvent(&closing.DailyClose{TotalSales: decimal.NewFromInt(181)}),
		giftcard.NewStatusChangedEvent(&giftcard.GiftCard{Code: "GC-1", Status: giftcard.StatusIssued}, giftcard.StatusNotIssued),
		cashregister.NewUpdatedEvent(&cashregister.Entry{
			Type: cashregister.EntryTypeSale, Amount: decimal.NewFromInt(122), Balance: decimal.NewFromInt(622),
		}),
	}
	for _, e := range events {
		require.NoError(t, m.Handle(ctx, e))
	}

	got := collect(t, reader)

	receipts := sumByAttr(t, got["pos.receipts.total"], telemetry.AttrPaymentMethod)
	assert.Equal(t, int64(1), receipts[string(trade.PaymentMethodCash)])
	assert.Equal(t, int64(1), receipts[string(trade.PaymentMethodCard)])

	sales := sumByAttr(t, got["pos.sales.amount"], telemetry.AttrPaymentMethod)
	assert.Equal(t, int64(12200), sales[string(trade.PaymentMethodCash)])
	assert.Equal(t, int64(5990), sales[string(trade.PaymentMethodCard)])

	assert.Equal(t, int64(1), sumByAttr(t, got["pos.stornos.total"], "")[""])
	assert.Equal(t, int64(1), sumByAttr(t, got["pos.returns.total"], "")[""])
	assert.Equal(t, int64(6100), sumByAttr(t, got["pos.refunds.amount"], "")[""])
	assert.Equal(t, int64(1), sumByAttr(t, got["pos.day_closes.total"], "")[""])

	moves := sumByAttr(t, got["pos.gift_card.transitions"], telemetry.AttrToStatus)
	assert.Equal(t, int64(1), moves[string(giftcard.StatusIssued)])

	gauge, ok := got["pos.cash_register.balance"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 622.0, gauge.DataPoints[0].Value)

	hist, ok := got["pos.receipt.amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestNewPOSMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewPOSMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}
