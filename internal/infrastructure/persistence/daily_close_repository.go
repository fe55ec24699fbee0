package persistence

import (
	"context"
	"time"

	"github.com/sklad/pos/internal/domain/closing"
	"gorm.io/gorm"
)

// GormDailyCloseRepository implements DailyCloseRepository using GORM
type GormDailyCloseRepository struct {
	db *gorm.DB
}

// NewGormDailyCloseRepository creates a new GormDailyCloseRepository
func NewGormDailyCloseRepository(db *gorm.DB) *GormDailyCloseRepository {
	return &GormDailyCloseRepository{db: db}
}

// Create inserts a close. The business date is unique.
func (r *GormDailyCloseRepository) Create(ctx context.Context, dc *closing.DailyClose) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&closing.DailyClose{}).
		Where("business_date = ?", dc.BusinessDate).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return closing.ErrAlreadyClosed.WithDetail("business_date", dc.BusinessDate.Format(time.DateOnly))
	}
	if err := r.db.WithContext(ctx).Create(dc).Error; err != nil {
		if isDuplicate(err) {
			return closing.ErrAlreadyClosed.WithDetail("business_date", dc.BusinessDate.Format(time.DateOnly))
		}
		return err
	}
	return nil
}

// FindByDate finds the close of a business date
func (r *GormDailyCloseRepository) FindByDate(ctx context.Context, businessDate time.Time) (*closing.DailyClose, error) {
	date := closing.BusinessDate(businessDate)
	var dc closing.DailyClose
	if err := r.db.WithContext(ctx).Where("business_date = ?", date).First(&dc).Error; err != nil {
		return nil, notFound(err, "daily close", date.Format(time.DateOnly))
	}
	return &dc, nil
}

// FindBetween lists closes with first <= business date <= last, oldest first
func (r *GormDailyCloseRepository) FindBetween(ctx context.Context, first, last time.Time) ([]closing.DailyClose, error) {
	var closes []closing.DailyClose
	if err := r.db.WithContext(ctx).
		Where("business_date >= ? AND business_date <= ?", closing.BusinessDate(first), closing.BusinessDate(last)).
		Order("business_date ASC").
		Find(&closes).Error; err != nil {
		return nil, err
	}
	return closes, nil
}

var _ closing.DailyCloseRepository = (*GormDailyCloseRepository)(nil)
