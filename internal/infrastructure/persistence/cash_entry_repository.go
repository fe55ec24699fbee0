package persistence

import (
	"context"

	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCashEntryRepository implements the cash-register ledger using GORM.
// Entries are only ever inserted.
type GormCashEntryRepository struct {
	db *gorm.DB
}

// NewGormCashEntryRepository creates a new GormCashEntryRepository
func NewGormCashEntryRepository(db *gorm.DB) *GormCashEntryRepository {
	return &GormCashEntryRepository{db: db}
}

// Create appends an entry. A clashing sequence means another writer got in
// first.
func (r *GormCashEntryRepository) Create(ctx context.Context, entry *cashregister.Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrConcurrencyConflict.WithDetail("sequence", entry.Sequence)
		}
		return err
	}
	return nil
}

// FindLatest returns the entry with the highest sequence
func (r *GormCashEntryRepository) FindLatest(ctx context.Context) (*cashregister.Entry, error) {
	var entry cashregister.Entry
	if err := r.db.WithContext(ctx).Order("sequence DESC").First(&entry).Error; err != nil {
		return nil, notFound(err, "cash register entry", "latest")
	}
	return &entry, nil
}

func (r *GormCashEntryRepository) inRange(ctx context.Context, dr shared.DateRange) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&cashregister.Entry{})
	if !dr.From.IsZero() {
		query = query.Where("timestamp >= ?", dr.From.UTC())
	}
	if !dr.To.IsZero() {
		query = query.Where("timestamp < ?", dr.To.UTC())
	}
	return query
}

// FindByDateRange lists entries within the range in sequence order
func (r *GormCashEntryRepository) FindByDateRange(ctx context.Context, dr shared.DateRange) ([]cashregister.Entry, error) {
	var entries []cashregister.Entry
	if err := r.inRange(ctx, dr).Order("sequence ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindAll lists the whole ledger in sequence order
func (r *GormCashEntryRepository) FindAll(ctx context.Context) ([]cashregister.Entry, error) {
	return r.FindByDateRange(ctx, shared.DateRange{})
}

// ExistsOfType reports whether an entry of type t was booked within the range
func (r *GormCashEntryRepository) ExistsOfType(ctx context.Context, t cashregister.EntryType, dr shared.DateRange) (bool, error) {
	var count int64
	if err := r.inRange(ctx, dr).Where("type = ?", t).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ cashregister.EntryRepository = (*GormCashEntryRepository)(nil)
