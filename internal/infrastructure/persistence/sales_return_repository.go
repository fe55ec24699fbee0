package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"gorm.io/gorm"
)

// GormSalesReturnRepository implements SalesReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// Create inserts the return with its items
func (r *GormSalesReturnRepository) Create(ctx context.Context, ret *trade.SalesReturn) error {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrDuplicateCode.WithDetail("return_number", ret.ReturnNumber)
		}
		return err
	}
	return nil
}

// FindByID loads a return with its items
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	var ret trade.SalesReturn
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&ret).Error; err != nil {
		return nil, notFound(err, "return", id.String())
	}
	return &ret, nil
}

// FindByReceipt lists the returns made against a receipt, oldest first
func (r *GormSalesReturnRepository) FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]trade.SalesReturn, error) {
	var returns []trade.SalesReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("original_receipt_id = ?", receiptID).
		Order("return_date ASC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

type returnedRow struct {
	ReceiptItemID uuid.UUID
	Quantity      int
}

// ReturnedQuantities sums the units already returned per receipt line
func (r *GormSalesReturnRepository) ReturnedQuantities(ctx context.Context, receiptID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []returnedRow
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesReturnItem{}).
		Select("return_items.receipt_item_id AS receipt_item_id, SUM(return_items.quantity) AS quantity").
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("returns.original_receipt_id = ?", receiptID).
		Group("return_items.receipt_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ReceiptItemID] = row.Quantity
	}
	return out, nil
}

// GetReturnedQuantity sums the units of one product already returned from a receipt
func (r *GormSalesReturnRepository) GetReturnedQuantity(ctx context.Context, receiptID uuid.UUID, ean string) (int, error) {
	var total int
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesReturnItem{}).
		Select("COALESCE(SUM(return_items.quantity), 0)").
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("returns.original_receipt_id = ? AND return_items.product_ean = ?", receiptID, ean).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// FindByDateRange lists returns made within the range in numbering order
func (r *GormSalesReturnRepository) FindByDateRange(ctx context.Context, dr shared.DateRange) ([]trade.SalesReturn, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if !dr.From.IsZero() {
		query = query.Where("return_date >= ?", dr.From.UTC())
	}
	if !dr.To.IsZero() {
		query = query.Where("return_date < ?", dr.To.UTC())
	}
	var returns []trade.SalesReturn
	if err := query.Order("year ASC").Order("sequence ASC").Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// NextSequence returns the next return sequence of the year
func (r *GormSalesReturnRepository) NextSequence(ctx context.Context, year int) (int, error) {
	var last int
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesReturn{}).
		Where("year = ?", year).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return 0, err
	}
	return last + 1, nil
}

var _ trade.SalesReturnRepository = (*GormSalesReturnRepository)(nil)
