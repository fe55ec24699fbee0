package cashregister

import (
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// AggregateTypeCashRegister is the aggregate type of ledger events
const AggregateTypeCashRegister = "CashRegister"

// EventTypeCashRegisterUpdated is published after each committed ledger entry
const EventTypeCashRegisterUpdated = "CashRegisterUpdated"

// UpdatedEvent carries the new till balance
type UpdatedEvent struct {
	shared.BaseDomainEvent
	EntryType EntryType       `json:"entry_type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewUpdatedEvent creates a new UpdatedEvent
func NewUpdatedEvent(e *Entry) *UpdatedEvent {
	return &UpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashRegisterUpdated, AggregateTypeCashRegister, e.ID),
		EntryType:       e.Type,
		Amount:          e.Amount,
		Balance:         e.Balance,
	}
}
