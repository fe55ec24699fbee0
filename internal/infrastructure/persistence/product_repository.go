package persistence

import (
	"context"
	"strings"

	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByEAN finds a product by its scan code
func (r *GormProductRepository) FindByEAN(ctx context.Context, ean string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).Where("ean = ?", ean).First(&product).Error; err != nil {
		return nil, notFound(err, "product", ean)
	}
	return &product, nil
}

// FindByEANForUpdate loads a product with SELECT ... FOR UPDATE. SQLite has
// no row locks and ignores the clause; the version check in Save still holds.
func (r *GormProductRepository) FindByEANForUpdate(ctx context.Context, ean string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ean = ?", ean).
		First(&product).Error; err != nil {
		return nil, notFound(err, "product", ean)
	}
	return &product, nil
}

// FindAll lists products matching the filter, ordered by name
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR ean LIKE ?", like, like)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []catalog.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("ean = ?", product.EAN).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrDuplicateCode.WithDetail("ean", product.EAN)
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrDuplicateCode.WithDetail("ean", product.EAN)
		}
		return err
	}
	return nil
}

// Save writes the product if nobody changed it since it was loaded and
// bumps its version
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	loaded := product.Version
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND version = ?", product.ID, loaded).
		Updates(map[string]any{
			"name":             product.Name,
			"category":         product.Category,
			"purchase_price":   product.PurchasePrice,
			"sale_price":       product.SalePrice,
			"markup":           product.Markup,
			"vat_rate":         product.VatRate,
			"stock_quantity":   product.StockQuantity,
			"discount_percent": product.DiscountPercent,
			"discount_from":    product.DiscountFrom,
			"discount_to":      product.DiscountTo,
			"discount_reason":  product.DiscountReason,
			"updated_at":       product.UpdatedAt,
			"version":          loaded + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("ean", product.EAN)
	}
	product.IncrementVersion()
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
