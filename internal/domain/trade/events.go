package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeReceipt     = "Receipt"
	AggregateTypeSalesReturn = "SalesReturn"
)

// Event type constants
const (
	EventTypeReceiptCompleted = "ReceiptCompleted"
	EventTypeReceiptCancelled = "ReceiptCancelled"
	EventTypeReturnCompleted  = "ReturnCompleted"
)

// ReceiptCompletedEvent is published after a sale commits
type ReceiptCompletedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber      string          `json:"receipt_number"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	FinalAmountRounded decimal.Decimal `json:"final_amount_rounded"`
	SellerName         string          `json:"seller_name"`
}

// NewReceiptCompletedEvent creates a new ReceiptCompletedEvent
func NewReceiptCompletedEvent(r *Receipt) *ReceiptCompletedEvent {
	return &ReceiptCompletedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeReceiptCompleted, AggregateTypeReceipt, r.ID),
		ReceiptNumber:      r.ReceiptNumber,
		PaymentMethod:      r.PaymentMethod,
		TotalAmount:        r.TotalAmount,
		FinalAmountRounded: r.FinalAmountRounded,
		SellerName:         r.SellerName,
	}
}

// ReceiptCancelledEvent is published after a storno commits
type ReceiptCancelledEvent struct {
	shared.BaseDomainEvent
	OriginalReceiptID uuid.UUID `json:"original_receipt_id"`
	StornoNumber      string    `json:"storno_number"`
	Reason            string    `json:"reason,omitempty"`
}

// NewReceiptCancelledEvent creates a new ReceiptCancelledEvent
func NewReceiptCancelledEvent(storno *Receipt) *ReceiptCancelledEvent {
	var original uuid.UUID
	if storno.OriginalReceiptID != nil {
		original = *storno.OriginalReceiptID
	}
	return &ReceiptCancelledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeReceiptCancelled, AggregateTypeReceipt, storno.ID),
		OriginalReceiptID: original,
		StornoNumber:      storno.ReceiptNumber,
		Reason:            storno.StornoReason,
	}
}

// ReturnCompletedEvent is published after a return commits
type ReturnCompletedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber       string          `json:"return_number"`
	ReceiptNumber      string          `json:"receipt_number"`
	FinalRefundRounded decimal.Decimal `json:"final_refund_rounded"`
}

// NewReturnCompletedEvent creates a new ReturnCompletedEvent
func NewReturnCompletedEvent(r *SalesReturn) *ReturnCompletedEvent {
	return &ReturnCompletedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeReturnCompleted, AggregateTypeSalesReturn, r.ID),
		ReturnNumber:       r.ReturnNumber,
		ReceiptNumber:      r.OriginalReceiptNumber,
		FinalRefundRounded: r.FinalRefundRounded,
	}
}
