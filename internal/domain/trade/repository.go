package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
)

// ReceiptRepository defines the interface for receipt persistence.
// Receipts are insert-only.
type ReceiptRepository interface {
	// Create inserts a receipt with its items and gift card redemptions
	Create(ctx context.Context, receipt *Receipt) error

	// FindByID finds a receipt with its items and redemptions
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindByNumber finds a receipt by its number, e.g. "U0001/2025"
	FindByNumber(ctx context.Context, number string) (*Receipt, error)

	// FindStornoOf finds the storno receipt cancelling the given receipt
	FindStornoOf(ctx context.Context, originalID uuid.UUID) (*Receipt, error)

	// FindByDateRange lists receipts (including stornos) in sequence order
	FindByDateRange(ctx context.Context, r shared.DateRange) ([]Receipt, error)

	// NextSequence returns the next free sequence number for the year
	NextSequence(ctx context.Context, year int) (int, error)
}

// SalesReturnRepository defines the interface for return persistence.
// Returns are insert-only.
type SalesReturnRepository interface {
	// Create inserts a return with its items
	Create(ctx context.Context, ret *SalesReturn) error

	// FindByID finds a return with its items
	FindByID(ctx context.Context, id uuid.UUID) (*SalesReturn, error)

	// FindByReceipt lists all returns made against a receipt
	FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]SalesReturn, error)

	// ReturnedQuantities sums returned quantities per receipt line
	ReturnedQuantities(ctx context.Context, receiptID uuid.UUID) (map[uuid.UUID]int, error)

	// GetReturnedQuantity sums returned quantities of one product on one receipt
	GetReturnedQuantity(ctx context.Context, receiptID uuid.UUID, ean string) (int, error)

	// FindByDateRange lists returns in sequence order
	FindByDateRange(ctx context.Context, r shared.DateRange) ([]SalesReturn, error)

	// NextSequence returns the next free sequence number for the year
	NextSequence(ctx context.Context, year int) (int, error)
}
