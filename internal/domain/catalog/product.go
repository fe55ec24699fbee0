package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/shared/valueobject"
)

// MaxDiscountPercent caps product-level discounts.
var MaxDiscountPercent = decimal.NewFromInt(100)

// Product represents a sellable item identified by its scan code (EAN).
// Products are never hard-deleted because receipts and movements refer to them.
type Product struct {
	shared.BaseAggregateRoot
	EAN             string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(200);not null"`
	Category        string          `gorm:"type:varchar(100);index"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Markup          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"` // percent over purchase price
	VatRate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	StockQuantity   int             `gorm:"not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountFrom    *time.Time
	DiscountTo      *time.Time
	DiscountReason  string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product with zero stock. Initial stock is booked
// through the stock ledger so that it appears as a movement.
func NewProduct(ean, name, category string, purchasePrice, salePrice, vatRate decimal.Decimal) (*Product, error) {
	ean = strings.TrimSpace(ean)
	if ean == "" {
		return nil, shared.NewValidationError("INVALID_EAN", "EAN cannot be empty")
	}
	if len(ean) > 32 {
		return nil, shared.NewValidationError("INVALID_EAN", "EAN cannot exceed 32 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Product name cannot be empty")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EAN:               ean,
		Name:              name,
		Category:          strings.TrimSpace(category),
		DiscountPercent:   decimal.Zero,
	}
	if err := p.SetPricing(purchasePrice, salePrice, vatRate); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPricing updates prices and VAT rate and recomputes the markup.
func (p *Product) SetPricing(purchasePrice, salePrice, vatRate decimal.Decimal) error {
	if purchasePrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Purchase price cannot be negative")
	}
	if salePrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Sale price cannot be negative")
	}
	if !valueobject.IsValidVatRate(vatRate) {
		return shared.NewValidationError("INVALID_VAT_RATE", "VAT rate must be between 0 and 100")
	}
	p.PurchasePrice = valueobject.Round2(purchasePrice)
	p.SalePrice = valueobject.Round2(salePrice)
	p.VatRate = vatRate
	p.Markup = ComputeMarkup(p.PurchasePrice, p.SalePrice)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ComputeMarkup returns (sale - purchase) / purchase * 100, or zero when the
// purchase price is zero.
func ComputeMarkup(purchasePrice, salePrice decimal.Decimal) decimal.Decimal {
	if purchasePrice.IsZero() {
		return decimal.Zero
	}
	return valueobject.Round2(salePrice.Sub(purchasePrice).Div(purchasePrice).Mul(decimal.NewFromInt(100)))
}

// SetDiscount sets a product-level discount valid in [from, to]. Nil bounds
// are open.
func (p *Product) SetDiscount(percent decimal.Decimal, from, to *time.Time, reason string) error {
	if percent.IsNegative() || percent.GreaterThan(MaxDiscountPercent) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Discount end cannot precede its start")
	}
	p.DiscountPercent = percent
	p.DiscountFrom = from
	p.DiscountTo = to
	p.DiscountReason = strings.TrimSpace(reason)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearDiscount removes any product-level discount
func (p *Product) ClearDiscount() {
	p.DiscountPercent = decimal.Zero
	p.DiscountFrom = nil
	p.DiscountTo = nil
	p.DiscountReason = ""
	p.UpdatedAt = time.Now().UTC()
}

// ActiveDiscount returns the discount percent in effect at the given instant.
func (p *Product) ActiveDiscount(at time.Time) (decimal.Decimal, bool) {
	if !p.DiscountPercent.IsPositive() {
		return decimal.Zero, false
	}
	if p.DiscountFrom != nil && at.Before(*p.DiscountFrom) {
		return decimal.Zero, false
	}
	if p.DiscountTo != nil && at.After(*p.DiscountTo) {
		return decimal.Zero, false
	}
	return p.DiscountPercent, true
}

// HasStock reports whether qty units are available
func (p *Product) HasStock(qty int) bool {
	return p.StockQuantity >= qty
}

// ApplyStockChange changes the quantity on hand by delta. It fails instead of
// clamping when the result would be negative.
func (p *Product) ApplyStockChange(delta int) (before, after int, err error) {
	before = p.StockQuantity
	after = before + delta
	if after < 0 {
		return before, before, shared.ErrInsufficientStock.
			WithDetail("ean", p.EAN).
			WithDetail("product", p.Name).
			WithDetail("requested", -delta).
			WithDetail("available", before)
	}
	p.StockQuantity = after
	p.UpdatedAt = time.Now().UTC()
	return before, after, nil
}
