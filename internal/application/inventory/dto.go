package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/inventory"
)

// MovementInput describes one change to a product's quantity on hand
type MovementInput struct {
	EAN         string
	Type        inventory.MovementType
	Delta       int
	User        string
	Note        string
	ReferenceID *uuid.UUID
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	EAN           string          `json:"ean" binding:"required,max=32"`
	Name          string          `json:"name" binding:"required,max=200"`
	Category      string          `json:"category" binding:"max=100"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	VatRate       decimal.Decimal `json:"vat_rate"`
	InitialStock  int             `json:"initial_stock" binding:"min=0"`
}

// UpdatePricingRequest changes prices, VAT and the discount window of a product
type UpdatePricingRequest struct {
	PurchasePrice   *decimal.Decimal `json:"purchase_price"`
	SalePrice       *decimal.Decimal `json:"sale_price"`
	VatRate         *decimal.Decimal `json:"vat_rate"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	DiscountFrom    *time.Time       `json:"discount_from"`
	DiscountTo      *time.Time       `json:"discount_to"`
	DiscountReason  string           `json:"discount_reason" binding:"max=200"`
	ClearDiscount   bool             `json:"clear_discount"`
}

// StockChangeRequest books stock in, out or to a counted quantity
type StockChangeRequest struct {
	Quantity int    `json:"quantity" binding:"min=0"`
	Note     string `json:"note" binding:"max=500"`
}

// WriteOffRequest removes units as testers or damaged goods
type WriteOffRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Damaged  bool   `json:"damaged"`
	Note     string `json:"note" binding:"max=500"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID              uuid.UUID       `json:"id"`
	EAN             string          `json:"ean"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	Markup          decimal.Decimal `json:"markup"`
	VatRate         decimal.Decimal `json:"vat_rate"`
	StockQuantity   int             `json:"stock_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountFrom    *time.Time      `json:"discount_from,omitempty"`
	DiscountTo      *time.Time      `json:"discount_to,omitempty"`
	DiscountReason  string          `json:"discount_reason,omitempty"`
	Version         int             `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductEAN     string     `json:"product_ean"`
	ProductName    string     `json:"product_name"`
	Type           string     `json:"type"`
	QuantityChange int        `json:"quantity_change"`
	StockBefore    int        `json:"stock_before"`
	StockAfter     int        `json:"stock_after"`
	CreatedAt      time.Time  `json:"created_at"`
	UserName       string     `json:"user_name"`
	Note           string     `json:"note,omitempty"`
	ReferenceID    *uuid.UUID `json:"reference_id,omitempty"`
}

// StockVerification compares the stored quantity with a replay of the ledger
type StockVerification struct {
	EAN              string     `json:"ean"`
	StoredQuantity   int        `json:"stored_quantity"`
	ReplayedQuantity int        `json:"replayed_quantity"`
	MovementCount    int        `json:"movement_count"`
	Consistent       bool       `json:"consistent"`
	BrokenMovementID *uuid.UUID `json:"broken_movement_id,omitempty"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		EAN:             p.EAN,
		Name:            p.Name,
		Category:        p.Category,
		PurchasePrice:   p.PurchasePrice,
		SalePrice:       p.SalePrice,
		Markup:          p.Markup,
		VatRate:         p.VatRate,
		StockQuantity:   p.StockQuantity,
		DiscountPercent: p.DiscountPercent,
		DiscountFrom:    p.DiscountFrom,
		DiscountTo:      p.DiscountTo,
		DiscountReason:  p.DiscountReason,
		Version:         p.Version,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductEAN:     m.ProductEAN,
		ProductName:    m.ProductName,
		Type:           m.Type.String(),
		QuantityChange: m.QuantityChange,
		StockBefore:    m.StockBefore,
		StockAfter:     m.StockAfter,
		CreatedAt:      m.CreatedAt,
		UserName:       m.UserName,
		Note:           m.Note,
		ReferenceID:    m.ReferenceID,
	}
}
