package closing

import (
	"context"
	"time"
)

// DailyCloseRepository persists daily closes. Records are insert-only.
type DailyCloseRepository interface {
	// Create inserts a close; a second close for the same date fails with ALREADY_CLOSED
	Create(ctx context.Context, dc *DailyClose) error

	// FindByDate finds the close of a business date
	FindByDate(ctx context.Context, businessDate time.Time) (*DailyClose, error)

	// FindBetween lists closes with first <= business date <= last, oldest first
	FindBetween(ctx context.Context, first, last time.Time) ([]DailyClose, error)
}
