package catalog

import (
	"context"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByEAN finds a product by its scan code
	FindByEAN(ctx context.Context, ean string) (*Product, error)

	// FindByEANForUpdate loads a product and locks its row where the store supports it
	FindByEANForUpdate(ctx context.Context, ean string) (*Product, error)

	// FindAll lists products matching the filter
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)

	// Create inserts a new product; fails with DUPLICATE_CODE if the EAN exists
	Create(ctx context.Context, product *Product) error

	// Save updates a product using its version for optimistic locking and
	// increments the version on success
	Save(ctx context.Context, product *Product) error
}
