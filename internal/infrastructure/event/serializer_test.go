package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	assert.Equal(t, []string{
		"CashRegisterUpdated",
		"DayClosed",
		"GiftCardStatusChanged",
		"ReceiptCancelled",
		"ReceiptCompleted",
		"ReturnCompleted",
	}, serializer.RegisteredTypes())

	receipt := &trade.Receipt{
		ReceiptNumber:      "U0007/2025",
		PaymentMethod:      trade.PaymentMethodCash,
		TotalAmount:        decimal.RequireFromString("233.40"),
		FinalAmountRounded: decimal.RequireFromString("233"),
		SellerName:         "Jana",
	}
	receipt.ID = uuid.New()
	original := trade.NewReceiptCompletedEvent(receipt)

	data, err := serializer.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"receipt_number":"U0007/2025"`)

	decoded, err := serializer.Deserialize(trade.EventTypeReceiptCompleted, data)
	require.NoError(t, err)
	completed, ok := decoded.(*trade.ReceiptCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), completed.EventID())
	assert.Equal(t, receipt.ID, completed.AggregateID())
	assert.True(t, completed.FinalAmountRounded.Equal(decimal.RequireFromString("233")))
}

func TestEventSerializer_Errors(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register(closing.EventTypeDayClosed, &closing.DayClosedEvent{})
	assert.True(t, serializer.IsRegistered("DayClosed"))
	assert.False(t, serializer.IsRegistered("ReceiptCompleted"))

	_, err := serializer.Deserialize("ReceiptCompleted", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = serializer.Deserialize("DayClosed", []byte(`{"total_sales":`))
	assert.ErrorContains(t, err, "deserialize DayClosed")
}
