package event

import (
	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/trade"
)

// RegisterAllEvents registers every money-flow event with the serializer
// so journal entries can be read back as typed events
func RegisterAllEvents(serializer *EventSerializer) {
	// Receipts and returns
	serializer.Register(trade.EventTypeReceiptCompleted, &trade.ReceiptCompletedEvent{})
	serializer.Register(trade.EventTypeReceiptCancelled, &trade.ReceiptCancelledEvent{})
	serializer.Register(trade.EventTypeReturnCompleted, &trade.ReturnCompletedEvent{})

	serializer.Register(giftcard.EventTypeGiftCardStatusChanged, &giftcard.StatusChangedEvent{})
	serializer.Register(cashregister.EventTypeCashRegisterUpdated, &cashregister.UpdatedEvent{})
	serializer.Register(closing.EventTypeDayClosed, &closing.DayClosedEvent{})
}
