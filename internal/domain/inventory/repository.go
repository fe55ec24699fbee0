package inventory

import (
	"context"
	"time"
)

// MovementQuery selects stock movements. Zero-valued fields do not filter.
type MovementQuery struct {
	From       time.Time
	To         time.Time
	ProductEAN string
	Type       MovementType
}

// StockMovementRepository persists the append-only stock ledger
type StockMovementRepository interface {
	// Create appends a movement
	Create(ctx context.Context, movement *StockMovement) error

	// FindPage returns movements newest first. The cursor is the CreatedAt and
	// ID of the last row of the previous page; a nil cursor starts from the top.
	FindPage(ctx context.Context, query MovementQuery, after *MovementCursor, limit int) ([]StockMovement, error)

	// FindByProductChronological returns every movement of a product, oldest first
	FindByProductChronological(ctx context.Context, ean string) ([]StockMovement, error)
}

// MovementCursor marks a position in a newest-first movement listing
type MovementCursor struct {
	CreatedAt time.Time
	ID        string
}
