package persistence

import (
	"context"

	"github.com/sklad/pos/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// Movements are insert-only.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindPage returns up to limit movements newest first, after the cursor.
// Ties on created_at are broken by id so pages never overlap.
func (r *GormStockMovementRepository) FindPage(ctx context.Context, query inventory.MovementQuery, after *inventory.MovementCursor, limit int) ([]inventory.StockMovement, error) {
	q := r.db.WithContext(ctx).Model(&inventory.StockMovement{})
	if !query.From.IsZero() {
		q = q.Where("created_at >= ?", query.From.UTC())
	}
	if !query.To.IsZero() {
		q = q.Where("created_at < ?", query.To.UTC())
	}
	if query.ProductEAN != "" {
		q = q.Where("product_ean = ?", query.ProductEAN)
	}
	if query.Type != "" {
		q = q.Where("type = ?", query.Type)
	}
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var movements []inventory.StockMovement
	if err := q.Order("created_at DESC").Order("id DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByProductChronological returns every movement of a product, oldest first
func (r *GormStockMovementRepository) FindByProductChronological(ctx context.Context, ean string) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("product_ean = ?", ean).
		Order("created_at ASC").
		Order("id ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
