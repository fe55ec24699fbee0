package giftcard

import "github.com/sklad/pos/internal/domain/shared"

// AggregateTypeGiftCard is the aggregate type of gift card events
const AggregateTypeGiftCard = "GiftCard"

// EventTypeGiftCardStatusChanged is published on every state transition
const EventTypeGiftCardStatusChanged = "GiftCardStatusChanged"

// StatusChangedEvent is published when a card moves between states
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	From Status `json:"from"`
	To   Status `json:"to"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(card *GiftCard, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGiftCardStatusChanged, AggregateTypeGiftCard, card.ID),
		Code:            card.Code,
		From:            from,
		To:              card.Status,
	}
}
