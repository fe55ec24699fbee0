package giftcard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// Status is the lifecycle state of a gift card
type Status string

const (
	StatusNotIssued Status = "NOT_ISSUED"
	StatusIssued    Status = "ISSUED"
	StatusUsed      Status = "USED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ErrInvalidGiftCard is returned when a card cannot be redeemed
var ErrInvalidGiftCard = shared.NewDomainError("INVALID_GIFT_CARD", "Gift card cannot be used")

// GiftCard is a prepaid voucher identified by its scan code.
//
// NOT_ISSUED -> ISSUED -> USED, with ISSUED -> EXPIRED on read once the
// expiration date has passed, and any state except USED -> CANCELLED.
type GiftCard struct {
	shared.BaseAggregateRoot
	Code           string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Value          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status         Status          `gorm:"type:varchar(20);not null;index"`
	IssuedAt       *time.Time
	IssuedOnID     *uuid.UUID `gorm:"type:uuid"`
	IssuedBy       string     `gorm:"type:varchar(100)"`
	UsedAt         *time.Time
	UsedOnID       *uuid.UUID `gorm:"type:uuid"`
	UsedBy         string     `gorm:"type:varchar(100)"`
	ExpirationDate *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
	Note           string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (GiftCard) TableName() string {
	return "gift_cards"
}

// NewGiftCard registers a not-yet-sold card
func NewGiftCard(code string, value decimal.Decimal, expiration *time.Time, note string) (*GiftCard, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Gift card code cannot be empty")
	}
	if !value.IsPositive() {
		return nil, shared.NewValidationError("INVALID_VALUE", "Gift card value must be positive")
	}
	return &GiftCard{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Value:             value.Round(2),
		Status:            StatusNotIssued,
		ExpirationDate:    expiration,
		Note:              strings.TrimSpace(note),
	}, nil
}

func (g *GiftCard) transition(to Status, now time.Time) {
	from := g.Status
	g.Status = to
	g.UpdatedAt = now.UTC()
	g.AddDomainEvent(NewStatusChangedEvent(g, from))
}

func (g *GiftCard) invalidState(op string) *shared.DomainError {
	return shared.ErrInvalidState.
		WithDetail("code", g.Code).
		WithDetail("status", string(g.Status)).
		WithDetail("operation", op)
}

// IsExpiredAt reports whether the expiration date lies before now
func (g *GiftCard) IsExpiredAt(now time.Time) bool {
	return g.ExpirationDate != nil && g.ExpirationDate.Before(now)
}

// RefreshExpiry moves an issued card past its expiration date to EXPIRED.
// It returns true when the status changed and the card must be saved.
func (g *GiftCard) RefreshExpiry(now time.Time) bool {
	if g.Status == StatusIssued && g.IsExpiredAt(now) {
		g.transition(StatusExpired, now)
		return true
	}
	return false
}

// Sell issues the card on a receipt
func (g *GiftCard) Sell(receiptID uuid.UUID, user string, now time.Time) error {
	if g.Status != StatusNotIssued {
		return g.invalidState("sell")
	}
	at := now.UTC()
	g.IssuedAt = &at
	g.IssuedOnID = &receiptID
	g.IssuedBy = user
	g.transition(StatusIssued, now)
	return nil
}

// Redeem uses the card as payment on a receipt. An issued card found past its
// expiration date is moved to EXPIRED before the call fails, so the caller
// should persist the card even on error when RefreshExpiry would report it.
func (g *GiftCard) Redeem(receiptID uuid.UUID, user string, now time.Time) error {
	if g.RefreshExpiry(now) {
		return ErrInvalidGiftCard.WithDetail("code", g.Code).WithDetail("status", string(StatusExpired))
	}
	if g.Status != StatusIssued {
		return ErrInvalidGiftCard.WithDetail("code", g.Code).WithDetail("status", string(g.Status))
	}
	at := now.UTC()
	g.UsedAt = &at
	g.UsedOnID = &receiptID
	g.UsedBy = user
	g.transition(StatusUsed, now)
	return nil
}

// CancelSale reverts a sale (storno of the receipt that sold the card)
func (g *GiftCard) CancelSale(now time.Time) error {
	if g.Status != StatusIssued {
		return g.invalidState("cancel_sale")
	}
	g.IssuedAt = nil
	g.IssuedOnID = nil
	g.IssuedBy = ""
	g.transition(StatusNotIssued, now)
	return nil
}

// CancelRedemption reverts a redemption (storno of the receipt it paid)
func (g *GiftCard) CancelRedemption(now time.Time) error {
	if g.Status != StatusUsed {
		return g.invalidState("cancel_redemption")
	}
	g.UsedAt = nil
	g.UsedOnID = nil
	g.UsedBy = ""
	g.transition(StatusIssued, now)
	return nil
}

// MarkCancelled withdraws the card permanently. Used cards cannot be cancelled.
func (g *GiftCard) MarkCancelled(reason string, now time.Time) error {
	switch g.Status {
	case StatusUsed:
		return g.invalidState("cancel")
	case StatusCancelled:
		return shared.NewDomainError("ALREADY_CANCELLED", "Gift card is already cancelled").WithDetail("code", g.Code)
	}
	at := now.UTC()
	g.CancelledAt = &at
	g.CancelReason = strings.TrimSpace(reason)
	g.transition(StatusCancelled, now)
	return nil
}

// SetExpiration sets or clears the expiration date. Past dates are rejected.
func (g *GiftCard) SetExpiration(date *time.Time, now time.Time) error {
	if date != nil && date.Before(now) {
		return shared.NewValidationError("INVALID_EXPIRATION", "Expiration date cannot be in the past")
	}
	if g.Status == StatusUsed || g.Status == StatusCancelled {
		return g.invalidState("set_expiration")
	}
	g.ExpirationDate = date
	g.UpdatedAt = now.UTC()
	return nil
}
