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

var (
	// ErrExceedsReturnable is returned when more units are requested back than remain returnable
	ErrExceedsReturnable = shared.NewDomainError("EXCEEDS_RETURNABLE", "Requested quantity exceeds the returnable quantity")
	// ErrNothingToReturn is returned when every requested line has zero quantity
	ErrNothingToReturn = shared.NewValidationError("NOTHING_TO_RETURN", "No quantity selected for return")
)

// FormatReturnNumber renders a return number such as "R0001/2025"
func FormatReturnNumber(sequence, year int) string {
	return fmt.Sprintf("R%04d/%d", sequence, year)
}

// SalesReturnItem is one refunded line, priced from the original receipt
type SalesReturnItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReturnID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReceiptItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"type:uuid"`
	ProductEAN    string          `gorm:"type:varchar(64);not null"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VatRate       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	RefundAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VatAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesReturnItem) TableName() string {
	return "return_items"
}

// SalesReturn is the immutable record of a refund against one receipt
type SalesReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber          string            `gorm:"type:varchar(20);not null;uniqueIndex"`
	Year                  int               `gorm:"not null;uniqueIndex:idx_return_year_seq,priority:1"`
	Sequence              int               `gorm:"not null;uniqueIndex:idx_return_year_seq,priority:2"`
	ReturnDate            time.Time         `gorm:"not null;index"`
	OriginalReceiptID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	OriginalReceiptNumber string            `gorm:"type:varchar(20);not null"`
	SellerName            string            `gorm:"type:varchar(100);not null"`
	Reason                string            `gorm:"type:varchar(500)"`
	Items                 []SalesReturnItem `gorm:"foreignKey:ReturnID"`
	TotalRefundAmount     decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	TotalVat              decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	LoyaltyDiscountShare  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	AmountToRefund        decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	FinalRefundRounded    decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	RefundRoundingAmount  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesReturn) TableName() string {
	return "returns"
}

// ReturnLine asks for quantity units of a product back
type ReturnLine struct {
	EAN      string
	Quantity int
}

// Returnable is what is left to return of one receipt line
type Returnable struct {
	Item      ReceiptItem
	Returned  int
	Remaining int
}

// ReturnableLines lists each product line of the receipt with the quantity
// still returnable, given per-line quantities already returned.
func ReturnableLines(receipt *Receipt, returned map[uuid.UUID]int) []Returnable {
	out := make([]Returnable, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		if item.IsGiftCard {
			continue
		}
		done := returned[item.ID]
		out = append(out, Returnable{Item: item, Returned: done, Remaining: item.Quantity - done})
	}
	return out
}

// NewSalesReturn plans and prices a return. Zero-quantity lines are skipped;
// if nothing is left the return fails with NOTHING_TO_RETURN.
func NewSalesReturn(receipt *Receipt, returned map[uuid.UUID]int, lines []ReturnLine, sequence, year int, seller, reason string, at time.Time) (*SalesReturn, error) {
	if receipt.IsStorno {
		return nil, shared.ErrInvalidState.WithDetail("receipt", receipt.ReceiptNumber).WithDetail("reason", "storno receipts cannot be returned")
	}
	seller = strings.TrimSpace(seller)
	if seller == "" {
		return nil, shared.NewValidationError("INVALID_SELLER", "Seller name is required")
	}

	requested := make(map[string]int)
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 0 {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Return quantity cannot be negative").WithDetail("ean", l.EAN)
		}
		if l.Quantity == 0 {
			continue
		}
		if _, seen := requested[l.EAN]; !seen {
			order = append(order, l.EAN)
		}
		requested[l.EAN] += l.Quantity
	}
	if len(order) == 0 {
		return nil, ErrNothingToReturn
	}

	ret := &SalesReturn{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		ReturnNumber:          FormatReturnNumber(sequence, year),
		Year:                  year,
		Sequence:              sequence,
		ReturnDate:            at.UTC(),
		OriginalReceiptID:     receipt.ID,
		OriginalReceiptNumber: receipt.ReceiptNumber,
		SellerName:            seller,
		Reason:                strings.TrimSpace(reason),
	}

	available := ReturnableLines(receipt, returned)
	for _, ean := range order {
		qty := requested[ean]
		maxQty, name := 0, ""
		for _, a := range available {
			if a.Item.ProductEAN == ean {
				maxQty += a.Remaining
				name = a.Item.ProductName
			}
		}
		if name == "" {
			return nil, shared.NewNotFoundError("receipt line", ean)
		}
		if qty > maxQty {
			return nil, ErrExceedsReturnable.
				WithDetail("ean", ean).
				WithDetail("product", name).
				WithDetail("requested", qty).
				WithDetail("max_returnable", maxQty)
		}
		for _, a := range available {
			if qty == 0 {
				break
			}
			if a.Item.ProductEAN != ean || a.Remaining == 0 {
				continue
			}
			take := min(qty, a.Remaining)
			qty -= take
			ret.addItem(a.Item, take, receipt.VatPayer)
		}
	}

	ret.computeTotals(receipt)
	return ret, nil
}

func (r *SalesReturn) addItem(src ReceiptItem, qty int, vatPayer bool) {
	refund := src.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	vat := decimal.Zero
	if vatPayer {
		// historical rate from the receipt, not the product's current one
		_, vat = valueobject.SplitVat(refund, src.VatRate)
	}
	r.Items = append(r.Items, SalesReturnItem{
		ID:            uuid.New(),
		ReturnID:      r.ID,
		ReceiptItemID: src.ID,
		ProductID:     src.ProductID,
		ProductEAN:    src.ProductEAN,
		ProductName:   src.ProductName,
		Quantity:      qty,
		UnitPrice:     src.UnitPrice,
		VatRate:       src.VatRate,
		RefundAmount:  refund,
		VatAmount:     vat,
	})
}

func (r *SalesReturn) computeTotals(receipt *Receipt) {
	total, vat := decimal.Zero, decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.RefundAmount)
		vat = vat.Add(item.VatAmount)
	}
	r.TotalRefundAmount = total
	r.TotalVat = vat
	r.LoyaltyDiscountShare = LoyaltyShare(receipt.LoyaltyDiscountAmount, total, receipt.TotalAmount)
	r.AmountToRefund = total.Sub(r.LoyaltyDiscountShare)

	cash := valueobject.SettleCash(r.AmountToRefund)
	r.FinalRefundRounded = cash.Rounded
	r.RefundRoundingAmount = cash.Rounding
}

// LoyaltyShare is the part of the original loyalty discount attributable to
// a refund: round2(discount * refund / receiptTotal).
func LoyaltyShare(discount, refund, receiptTotal decimal.Decimal) decimal.Decimal {
	if !discount.IsPositive() || !receiptTotal.IsPositive() {
		return decimal.Zero
	}
	return valueobject.Round2(discount.Mul(refund).DivRound(receiptTotal, 8))
}

// QuantityFor returns the total returned quantity of a product on this return
func (r *SalesReturn) QuantityFor(ean string) int {
	n := 0
	for _, item := range r.Items {
		if item.ProductEAN == ean {
			n += item.Quantity
		}
	}
	return n
}
