package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/partner"
	"github.com/sklad/pos/internal/domain/shared"
	"gorm.io/gorm"
)

// GormLoyaltyCustomerRepository implements LoyaltyCustomerRepository using GORM
type GormLoyaltyCustomerRepository struct {
	db *gorm.DB
}

// NewGormLoyaltyCustomerRepository creates a new GormLoyaltyCustomerRepository
func NewGormLoyaltyCustomerRepository(db *gorm.DB) *GormLoyaltyCustomerRepository {
	return &GormLoyaltyCustomerRepository{db: db}
}

// FindByID finds a member by ID
func (r *GormLoyaltyCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.LoyaltyCustomer, error) {
	var customer partner.LoyaltyCustomer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, notFound(err, "loyalty customer", id.String())
	}
	return &customer, nil
}

// FindByCardCode finds a member by the code on their loyalty card
func (r *GormLoyaltyCustomerRepository) FindByCardCode(ctx context.Context, code string) (*partner.LoyaltyCustomer, error) {
	var customer partner.LoyaltyCustomer
	if err := r.db.WithContext(ctx).Where("card_code = ?", code).First(&customer).Error; err != nil {
		return nil, notFound(err, "loyalty customer", code)
	}
	return &customer, nil
}

// FindAll lists members whose name, email or card code contains search
func (r *GormLoyaltyCustomerRepository) FindAll(ctx context.Context, search string) ([]partner.LoyaltyCustomer, error) {
	query := r.db.WithContext(ctx).Model(&partner.LoyaltyCustomer{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR card_code LIKE ?",
			like, like, like, like)
	}
	var customers []partner.LoyaltyCustomer
	if err := query.Order("last_name, first_name").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// Create inserts a new member; card codes are unique
func (r *GormLoyaltyCustomerRepository) Create(ctx context.Context, customer *partner.LoyaltyCustomer) error {
	if customer.CardCode != nil {
		var count int64
		if err := r.db.WithContext(ctx).Model(&partner.LoyaltyCustomer{}).
			Where("card_code = ?", *customer.CardCode).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrDuplicateCode.WithDetail("card_code", *customer.CardCode)
		}
	}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrDuplicateCode
		}
		return err
	}
	return nil
}

// Save writes the member with an optimistic version check
func (r *GormLoyaltyCustomerRepository) Save(ctx context.Context, customer *partner.LoyaltyCustomer) error {
	loaded := customer.Version
	result := r.db.WithContext(ctx).
		Model(&partner.LoyaltyCustomer{}).
		Where("id = ? AND version = ?", customer.ID, loaded).
		Updates(map[string]any{
			"first_name":       customer.FirstName,
			"last_name":        customer.LastName,
			"email":            customer.Email,
			"phone":            customer.Phone,
			"card_code":        customer.CardCode,
			"discount_percent": customer.DiscountPercent,
			"total_purchases":  customer.TotalPurchases,
			"updated_at":       customer.UpdatedAt,
			"version":          loaded + 1,
		})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return shared.ErrDuplicateCode
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("customer_id", customer.ID.String())
	}
	customer.IncrementVersion()
	return nil
}

var _ partner.LoyaltyCustomerRepository = (*GormLoyaltyCustomerRepository)(nil)
