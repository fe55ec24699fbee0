package giftcard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/giftcard"
)

// AddGiftCardRequest registers a new, not yet sold card
type AddGiftCardRequest struct {
	Code           string          `json:"code" binding:"required,max=64"`
	Value          decimal.Decimal `json:"value" binding:"money"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	Note           string          `json:"note" binding:"max=500"`
}

// TransitionRequest links a sale or redemption to a receipt
type TransitionRequest struct {
	ReceiptID uuid.UUID `json:"receipt_id" binding:"required"`
}

// CancelRequest withdraws a card
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SetExpirationRequest sets or clears the expiration date
type SetExpirationRequest struct {
	ExpirationDate *time.Time `json:"expiration_date"`
}

// GiftCardResponse represents a gift card in API responses
type GiftCardResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Value          decimal.Decimal `json:"value" binding:"money"`
	Status         string          `json:"status"`
	IssuedAt       *time.Time      `json:"issued_at,omitempty"`
	IssuedOnID     *uuid.UUID      `json:"issued_on_receipt_id,omitempty"`
	IssuedBy       string          `json:"issued_by,omitempty"`
	UsedAt         *time.Time      `json:"used_at,omitempty"`
	UsedOnID       *uuid.UUID      `json:"used_on_receipt_id,omitempty"`
	UsedBy         string          `json:"used_by,omitempty"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// ToGiftCardResponse converts a domain card to a response
func ToGiftCardResponse(g *giftcard.GiftCard) GiftCardResponse {
	return GiftCardResponse{
		ID:             g.ID,
		Code:           g.Code,
		Value:          g.Value,
		Status:         g.Status.String(),
		IssuedAt:       g.IssuedAt,
		IssuedOnID:     g.IssuedOnID,
		IssuedBy:       g.IssuedBy,
		UsedAt:         g.UsedAt,
		UsedOnID:       g.UsedOnID,
		UsedBy:         g.UsedBy,
		ExpirationDate: g.ExpirationDate,
		CancelledAt:    g.CancelledAt,
		CancelReason:   g.CancelReason,
		Note:           g.Note,
	}
}
