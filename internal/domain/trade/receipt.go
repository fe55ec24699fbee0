package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/shared/valueobject"
)

// PaymentMethod is how the customer settled the receipt
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

// IsValid returns true if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCard
}

// ErrInsufficientPayment is returned when cash tendered is below the rounded total
var ErrInsufficientPayment = shared.NewValidationError("INSUFFICIENT_PAYMENT", "Received amount is lower than the amount to pay")

// FormatReceiptNumber renders a receipt number such as "U0001/2025"
func FormatReceiptNumber(sequence, year int) string {
	return fmt.Sprintf("U%04d/%d", sequence, year)
}

// ReceiptItem is a snapshot of one sold line. It never refers back to live
// product data for prices or names.
type ReceiptItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo            int             `gorm:"not null"`
	ProductID         *uuid.UUID      `gorm:"type:uuid"`
	ProductEAN        string          `gorm:"type:varchar(64);not null;index"`
	ProductName       string          `gorm:"type:varchar(200);not null"`
	Quantity          int             `gorm:"not null"`
	OriginalUnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountReason    string          `gorm:"type:varchar(200)"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VatRate           decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineVat           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsGiftCard        bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReceiptItem) TableName() string {
	return "receipt_items"
}

// LineInput describes a line to put on a new receipt
type LineInput struct {
	ProductID       *uuid.UUID
	EAN             string
	Name            string
	Quantity        int
	UnitPrice       decimal.Decimal
	VatRate         decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountReason  string
	IsGiftCard      bool
}

// GiftCardRedemption links a receipt to a gift card used to pay it
type GiftCardRedemption struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	GiftCardID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	GiftCardCode string          `gorm:"type:varchar(64);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (GiftCardRedemption) TableName() string {
	return "receipt_gift_cards"
}

// Receipt is the immutable record of one completed sale. Corrections are
// made with a storno receipt that negates it.
type Receipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber          string               `gorm:"type:varchar(20);not null;uniqueIndex"`
	Year                   int                  `gorm:"not null;uniqueIndex:idx_receipt_year_seq,priority:1"`
	Sequence               int                  `gorm:"not null;uniqueIndex:idx_receipt_year_seq,priority:2"`
	SaleDate               time.Time            `gorm:"not null;index"`
	SellerName             string               `gorm:"type:varchar(100);not null"`
	PaymentMethod          PaymentMethod        `gorm:"type:varchar(10);not null"`
	VatPayer               bool                 `gorm:"not null;default:false"`
	Items                  []ReceiptItem        `gorm:"foreignKey:ReceiptID"`
	GiftCardRedemptions    []GiftCardRedemption `gorm:"foreignKey:ReceiptID"`
	TotalAmount            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	TotalVat               decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalWithoutVat        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	LoyaltyCustomerID      *uuid.UUID           `gorm:"type:uuid;index"`
	LoyaltyDiscountPercent decimal.Decimal      `gorm:"type:decimal(5,2);not null;default:0"`
	LoyaltyDiscountAmount  decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	GiftCardAmount         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountToPay            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	FinalAmountRounded     decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	RoundingAmount         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ReceivedAmount         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ChangeAmount           decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	IsStorno               bool                 `gorm:"not null;default:false;index"`
	OriginalReceiptID      *uuid.UUID           `gorm:"type:uuid;index"`
	StornoReason           string               `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Receipt) TableName() string {
	return "receipts"
}

// NewReceipt starts a receipt. Lines, loyalty and gift cards are added before
// Finalize computes the totals.
func NewReceipt(sequence, year int, seller string, method PaymentMethod, saleDate time.Time, vatPayer bool) (*Receipt, error) {
	seller = strings.TrimSpace(seller)
	if seller == "" {
		return nil, shared.NewValidationError("INVALID_SELLER", "Seller name is required")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_METHOD", "Payment method must be CASH or CARD")
	}
	if sequence < 1 {
		return nil, shared.NewValidationError("INVALID_SEQUENCE", "Receipt sequence must be positive")
	}
	return &Receipt{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		ReceiptNumber:          FormatReceiptNumber(sequence, year),
		Year:                   year,
		Sequence:               sequence,
		SaleDate:               saleDate.UTC(),
		SellerName:             seller,
		PaymentMethod:          method,
		VatPayer:               vatPayer,
		LoyaltyDiscountPercent: decimal.Zero,
		LoyaltyDiscountAmount:  decimal.Zero,
		GiftCardAmount:         decimal.Zero,
	}, nil
}

// AddLine snapshots a line onto the receipt
func (r *Receipt) AddLine(in LineInput) (*ReceiptItem, error) {
	if in.Quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1").WithDetail("ean", in.EAN)
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative").WithDetail("ean", in.EAN)
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewValidationError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100").WithDetail("ean", in.EAN)
	}

	unitPrice := valueobject.ApplyPercentDiscount(in.UnitPrice, in.DiscountPercent)
	item := ReceiptItem{
		ID:                uuid.New(),
		ReceiptID:         r.ID,
		LineNo:            len(r.Items) + 1,
		ProductID:         in.ProductID,
		ProductEAN:        in.EAN,
		ProductName:       in.Name,
		Quantity:          in.Quantity,
		OriginalUnitPrice: in.UnitPrice,
		DiscountPercent:   in.DiscountPercent,
		DiscountReason:    in.DiscountReason,
		UnitPrice:         unitPrice,
		VatRate:           in.VatRate,
		LineTotal:         unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		LineVat:           decimal.Zero,
		IsGiftCard:        in.IsGiftCard,
	}
	r.Items = append(r.Items, item)
	return &r.Items[len(r.Items)-1], nil
}

// ApplyLoyalty records the loyalty member and discount percent
func (r *Receipt) ApplyLoyalty(customerID uuid.UUID, percent decimal.Decimal) {
	r.LoyaltyCustomerID = &customerID
	r.LoyaltyDiscountPercent = percent
}

// AddGiftCardRedemption records a gift card used to pay this receipt
func (r *Receipt) AddGiftCardRedemption(cardID uuid.UUID, code string, amount decimal.Decimal) {
	r.GiftCardRedemptions = append(r.GiftCardRedemptions, GiftCardRedemption{
		ID:           uuid.New(),
		ReceiptID:    r.ID,
		GiftCardID:   cardID,
		GiftCardCode: code,
		Amount:       amount,
	})
}

// Finalize computes totals in the fixed order: line discounts (already in
// the lines), loyalty discount on the gross total, gift cards, then cash
// rounding of what is left to pay.
func (r *Receipt) Finalize() error {
	if len(r.Items) == 0 {
		return shared.NewValidationError("EMPTY_RECEIPT", "Receipt has no lines")
	}

	total := decimal.Zero
	vatLines := make([]valueobject.VatLine, 0, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		total = total.Add(item.LineTotal)
		if r.VatPayer {
			_, item.LineVat = valueobject.SplitVat(item.LineTotal, item.VatRate)
			vatLines = append(vatLines, valueobject.VatLine{Rate: item.VatRate, Gross: item.LineTotal})
		}
	}
	r.TotalAmount = total
	r.TotalVat = valueobject.SumVat(valueobject.VatBreakdown(vatLines))
	r.TotalWithoutVat = total.Sub(r.TotalVat)

	r.LoyaltyDiscountAmount = decimal.Zero
	if r.LoyaltyDiscountPercent.IsPositive() {
		r.LoyaltyDiscountAmount = valueobject.PercentOf(total, r.LoyaltyDiscountPercent)
	}

	r.GiftCardAmount = decimal.Zero
	for _, g := range r.GiftCardRedemptions {
		r.GiftCardAmount = r.GiftCardAmount.Add(g.Amount)
	}

	toPay := total.Sub(r.LoyaltyDiscountAmount).Sub(r.GiftCardAmount)
	if toPay.IsNegative() {
		toPay = decimal.Zero
	}
	r.AmountToPay = toPay

	cash := valueobject.SettleCash(toPay)
	r.FinalAmountRounded = cash.Rounded
	r.RoundingAmount = cash.Rounding
	r.ReceivedAmount = cash.Rounded
	r.ChangeAmount = decimal.Zero
	return nil
}

// Settle records the tendered amount. A nil received amount means the exact
// rounded total. Card payments never produce change.
func (r *Receipt) Settle(received *decimal.Decimal) error {
	if r.PaymentMethod == PaymentMethodCard || received == nil {
		r.ReceivedAmount = r.FinalAmountRounded
		r.ChangeAmount = decimal.Zero
		return nil
	}
	if received.LessThan(r.FinalAmountRounded) {
		return ErrInsufficientPayment.
			WithDetail("received", received.StringFixed(2)).
			WithDetail("required", r.FinalAmountRounded.StringFixed(2))
	}
	r.ReceivedAmount = *received
	r.ChangeAmount = received.Sub(r.FinalAmountRounded)
	return nil
}

// VatBreakdown derives the per-rate VAT summary from the item snapshots
func (r *Receipt) VatBreakdown() []valueobject.VatBucket {
	if !r.VatPayer {
		return nil
	}
	lines := make([]valueobject.VatLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, valueobject.VatLine{Rate: item.VatRate, Gross: item.LineTotal})
	}
	return valueobject.VatBreakdown(lines)
}

// CashAmount is what this receipt moved through the till
func (r *Receipt) CashAmount() decimal.Decimal {
	if r.PaymentMethod != PaymentMethodCash {
		return decimal.Zero
	}
	return r.FinalAmountRounded
}

// NewStorno builds the cancellation receipt for r: every amount and
// quantity negated, linked back to r. The original is left untouched.
func (r *Receipt) NewStorno(sequence, year int, seller, reason string, at time.Time) (*Receipt, error) {
	if r.IsStorno {
		return nil, shared.ErrInvalidState.WithDetail("receipt", r.ReceiptNumber).WithDetail("reason", "a storno receipt cannot be cancelled")
	}
	s, err := NewReceipt(sequence, year, seller, r.PaymentMethod, at, r.VatPayer)
	if err != nil {
		return nil, err
	}
	for _, item := range r.Items {
		neg := item
		neg.ID = uuid.New()
		neg.ReceiptID = s.ID
		neg.Quantity = -item.Quantity
		neg.LineTotal = item.LineTotal.Neg()
		neg.LineVat = item.LineVat.Neg()
		s.Items = append(s.Items, neg)
	}
	originalID := r.ID
	s.IsStorno = true
	s.OriginalReceiptID = &originalID
	s.StornoReason = strings.TrimSpace(reason)
	s.LoyaltyCustomerID = r.LoyaltyCustomerID
	s.LoyaltyDiscountPercent = r.LoyaltyDiscountPercent
	s.TotalAmount = r.TotalAmount.Neg()
	s.TotalVat = r.TotalVat.Neg()
	s.TotalWithoutVat = r.TotalWithoutVat.Neg()
	s.LoyaltyDiscountAmount = r.LoyaltyDiscountAmount.Neg()
	s.GiftCardAmount = r.GiftCardAmount.Neg()
	s.AmountToPay = r.AmountToPay.Neg()
	s.FinalAmountRounded = r.FinalAmountRounded.Neg()
	s.RoundingAmount = r.RoundingAmount.Neg()
	s.ReceivedAmount = r.FinalAmountRounded.Neg()
	s.ChangeAmount = decimal.Zero
	return s, nil
}
