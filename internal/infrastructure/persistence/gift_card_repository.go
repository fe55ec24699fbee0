package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/shared"
	"gorm.io/gorm"
)

// GormGiftCardRepository implements GiftCardRepository using GORM
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGormGiftCardRepository creates a new GormGiftCardRepository
func NewGormGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// FindByCode finds a card by its scan code
func (r *GormGiftCardRepository) FindByCode(ctx context.Context, code string) (*giftcard.GiftCard, error) {
	var card giftcard.GiftCard
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&card).Error; err != nil {
		return nil, notFound(err, "gift card", code)
	}
	return &card, nil
}

// FindIssuedOn lists cards sold on a receipt
func (r *GormGiftCardRepository) FindIssuedOn(ctx context.Context, receiptID uuid.UUID) ([]giftcard.GiftCard, error) {
	var cards []giftcard.GiftCard
	if err := r.db.WithContext(ctx).Where("issued_on_id = ?", receiptID).Order("code").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// FindUsedOn lists cards redeemed on a receipt
func (r *GormGiftCardRepository) FindUsedOn(ctx context.Context, receiptID uuid.UUID) ([]giftcard.GiftCard, error) {
	var cards []giftcard.GiftCard
	if err := r.db.WithContext(ctx).Where("used_on_id = ?", receiptID).Order("code").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// FindAll lists cards, optionally only those in one status
func (r *GormGiftCardRepository) FindAll(ctx context.Context, status giftcard.Status) ([]giftcard.GiftCard, error) {
	query := r.db.WithContext(ctx).Model(&giftcard.GiftCard{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var cards []giftcard.GiftCard
	if err := query.Order("code").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// Create inserts a new card; codes are unique
func (r *GormGiftCardRepository) Create(ctx context.Context, card *giftcard.GiftCard) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&giftcard.GiftCard{}).Where("code = ?", card.Code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrDuplicateCode.WithDetail("code", card.Code)
	}
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrDuplicateCode.WithDetail("code", card.Code)
		}
		return err
	}
	return nil
}

// Save writes every field of the card with an optimistic version check
func (r *GormGiftCardRepository) Save(ctx context.Context, card *giftcard.GiftCard) error {
	loaded := card.Version
	result := r.db.WithContext(ctx).
		Model(&giftcard.GiftCard{}).
		Where("id = ? AND version = ?", card.ID, loaded).
		Updates(map[string]any{
			"value":           card.Value,
			"status":          card.Status,
			"issued_at":       card.IssuedAt,
			"issued_on_id":    card.IssuedOnID,
			"issued_by":       card.IssuedBy,
			"used_at":         card.UsedAt,
			"used_on_id":      card.UsedOnID,
			"used_by":         card.UsedBy,
			"expiration_date": card.ExpirationDate,
			"cancelled_at":    card.CancelledAt,
			"cancel_reason":   card.CancelReason,
			"note":            card.Note,
			"updated_at":      card.UpdatedAt,
			"version":         loaded + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("code", card.Code)
	}
	card.IncrementVersion()
	return nil
}

var _ giftcard.GiftCardRepository = (*GormGiftCardRepository)(nil)
