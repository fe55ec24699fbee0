package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/partner"
)

// CreateCustomerRequest represents a request to enrol a loyalty member
type CreateCustomerRequest struct {
	FirstName       string           `json:"first_name" binding:"max=100"`
	LastName        string           `json:"last_name" binding:"max=100"`
	Email           string           `json:"email" binding:"omitempty,email,max=200"`
	Phone           string           `json:"phone" binding:"max=50"`
	CardCode        string           `json:"card_code" binding:"max=64"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

// SetDiscountRequest changes a member's discount
type SetDiscountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// CustomerResponse represents a loyalty member in API responses
type CustomerResponse struct {
	ID              uuid.UUID       `json:"id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	CardCode        string          `json:"card_code,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TotalPurchases  decimal.Decimal `json:"total_purchases"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToCustomerResponse converts a domain member to a response
func ToCustomerResponse(c *partner.LoyaltyCustomer) CustomerResponse {
	resp := CustomerResponse{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		FullName:        c.FullName(),
		Email:           c.Email,
		Phone:           c.Phone,
		DiscountPercent: c.DiscountPercent,
		TotalPurchases:  c.TotalPurchases,
		CreatedAt:       c.CreatedAt,
	}
	if c.CardCode != nil {
		resp.CardCode = *c.CardCode
	}
	return resp
}
