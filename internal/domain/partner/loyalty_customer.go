package partner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// MaxLoyaltyDiscount is the highest discount percent a member can hold
var MaxLoyaltyDiscount = decimal.NewFromInt(30)

// LoyaltyCustomer is a member of the shop's loyalty program
type LoyaltyCustomer struct {
	shared.BaseAggregateRoot
	FirstName       string          `gorm:"type:varchar(100);not null"`
	LastName        string          `gorm:"type:varchar(100);not null"`
	Email           string          `gorm:"type:varchar(200)"`
	Phone           string          `gorm:"type:varchar(50)"`
	CardCode        *string         `gorm:"type:varchar(64);uniqueIndex"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TotalPurchases  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (LoyaltyCustomer) TableName() string {
	return "loyalty_customers"
}

// NewLoyaltyCustomer creates a member with no discount
func NewLoyaltyCustomer(firstName, lastName, email, phone, cardCode string) (*LoyaltyCustomer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Customer name cannot be empty")
	}
	c := &LoyaltyCustomer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FirstName:         firstName,
		LastName:          lastName,
		Email:             strings.TrimSpace(email),
		Phone:             strings.TrimSpace(phone),
		DiscountPercent:   decimal.Zero,
		TotalPurchases:    decimal.Zero,
	}
	if code := strings.TrimSpace(cardCode); code != "" {
		c.CardCode = &code
	}
	return c, nil
}

// FullName returns the display name
func (c *LoyaltyCustomer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// SetDiscount changes the member's discount (0-30 %)
func (c *LoyaltyCustomer) SetDiscount(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(MaxLoyaltyDiscount) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Loyalty discount must be between 0 and 30 percent")
	}
	c.DiscountPercent = percent
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// HasDiscount reports whether a positive discount applies
func (c *LoyaltyCustomer) HasDiscount() bool {
	return c.DiscountPercent.IsPositive()
}

// AccruePurchase adds amount (negative for a storno) to the lifetime total
func (c *LoyaltyCustomer) AccruePurchase(amount decimal.Decimal) {
	c.TotalPurchases = c.TotalPurchases.Add(amount)
	if c.TotalPurchases.IsNegative() {
		c.TotalPurchases = decimal.Zero
	}
	c.UpdatedAt = time.Now().UTC()
}
