package giftcard

import (
	"context"

	"github.com/google/uuid"
)

// GiftCardRepository defines the interface for gift card persistence
type GiftCardRepository interface {
	// FindByCode finds a card by scan code
	FindByCode(ctx context.Context, code string) (*GiftCard, error)

	// FindIssuedOn lists cards sold on the given receipt
	FindIssuedOn(ctx context.Context, receiptID uuid.UUID) ([]GiftCard, error)

	// FindUsedOn lists cards redeemed on the given receipt
	FindUsedOn(ctx context.Context, receiptID uuid.UUID) ([]GiftCard, error)

	// FindAll lists cards, optionally filtered by status
	FindAll(ctx context.Context, status Status) ([]GiftCard, error)

	// Create inserts a card; fails with DUPLICATE_CODE when the code exists
	Create(ctx context.Context, card *GiftCard) error

	// Save updates a card
	Save(ctx context.Context, card *GiftCard) error
}
