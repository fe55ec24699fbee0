package cashregister

import (
	"context"

	"github.com/sklad/pos/internal/domain/shared"
)

// EntryRepository persists the append-only cash-register ledger
type EntryRepository interface {
	// Create appends an entry
	Create(ctx context.Context, entry *Entry) error

	// FindLatest returns the most recent entry, or ErrNotFound on an empty ledger
	FindLatest(ctx context.Context) (*Entry, error)

	// FindByDateRange lists entries in sequence order
	FindByDateRange(ctx context.Context, r shared.DateRange) ([]Entry, error)

	// FindAll lists every entry in sequence order
	FindAll(ctx context.Context) ([]Entry, error)

	// ExistsOfType reports whether an entry of the type exists in the range
	ExistsOfType(ctx context.Context, t EntryType, r shared.DateRange) (bool, error)
}
