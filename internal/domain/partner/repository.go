package partner

import (
	"context"

	"github.com/google/uuid"
)

// LoyaltyCustomerRepository defines the interface for loyalty member persistence
type LoyaltyCustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LoyaltyCustomer, error)
	FindByCardCode(ctx context.Context, code string) (*LoyaltyCustomer, error)
	FindAll(ctx context.Context, search string) ([]LoyaltyCustomer, error)
	Create(ctx context.Context, customer *LoyaltyCustomer) error
	Save(ctx context.Context, customer *LoyaltyCustomer) error
}
