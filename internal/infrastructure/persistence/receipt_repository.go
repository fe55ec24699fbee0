package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM. Receipts
// are written once together with their items and gift card links.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

func (r *GormReceiptRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("GiftCardRedemptions")
}

// Create inserts the receipt with its items and gift card links
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *trade.Receipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrDuplicateCode.WithDetail("receipt_number", receipt.ReceiptNumber)
		}
		return err
	}
	return nil
}

// FindByID loads a receipt with its items
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Receipt, error) {
	var receipt trade.Receipt
	if err := r.withDetails(ctx).Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, notFound(err, "receipt", id.String())
	}
	return &receipt, nil
}

// FindByNumber loads a receipt by its printed number
func (r *GormReceiptRepository) FindByNumber(ctx context.Context, number string) (*trade.Receipt, error) {
	var receipt trade.Receipt
	if err := r.withDetails(ctx).Where("receipt_number = ?", number).First(&receipt).Error; err != nil {
		return nil, notFound(err, "receipt", number)
	}
	return &receipt, nil
}

// FindStornoOf returns the storno receipt of an original, or NOT_FOUND
func (r *GormReceiptRepository) FindStornoOf(ctx context.Context, originalID uuid.UUID) (*trade.Receipt, error) {
	var receipt trade.Receipt
	if err := r.withDetails(ctx).
		Where("original_receipt_id = ? AND is_storno = ?", originalID, true).
		First(&receipt).Error; err != nil {
		return nil, notFound(err, "storno of receipt", originalID.String())
	}
	return &receipt, nil
}

// FindByDateRange lists receipts sold within the range in numbering order
func (r *GormReceiptRepository) FindByDateRange(ctx context.Context, dr shared.DateRange) ([]trade.Receipt, error) {
	query := r.withDetails(ctx)
	if !dr.From.IsZero() {
		query = query.Where("sale_date >= ?", dr.From.UTC())
	}
	if !dr.To.IsZero() {
		query = query.Where("sale_date < ?", dr.To.UTC())
	}
	var receipts []trade.Receipt
	if err := query.Order("year ASC").Order("sequence ASC").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// NextSequence returns the next receipt sequence of the year
func (r *GormReceiptRepository) NextSequence(ctx context.Context, year int) (int, error) {
	var last int
	if err := r.db.WithContext(ctx).
		Model(&trade.Receipt{}).
		Where("year = ?", year).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return 0, err
	}
	return last + 1, nil
}

var _ trade.ReceiptRepository = (*GormReceiptRepository)(nil)
