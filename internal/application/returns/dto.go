package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/trade"
)

// ReturnLineRequest asks for units of one product back
type ReturnLineRequest struct {
	EAN      string `json:"ean" binding:"required,max=32"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

// ProcessReturnRequest represents a refund against one receipt
type ProcessReturnRequest struct {
	Lines  []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
	Reason string              `json:"reason" binding:"max=500"`
}

// ReturnableLineResponse is a receipt line with what can still come back
type ReturnableLineResponse struct {
	ReceiptItemID uuid.UUID       `json:"receipt_item_id"`
	ProductEAN    string          `json:"product_ean"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	Returned      int             `json:"returned"`
	Remaining     int             `json:"remaining"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VatRate       decimal.Decimal `json:"vat_rate"`
}

// ReturnableResponse lists the returnable lines of a receipt
type ReturnableResponse struct {
	ReceiptID     uuid.UUID                `json:"receipt_id"`
	ReceiptNumber string                   `json:"receipt_number"`
	Lines         []ReturnableLineResponse `json:"lines"`
}

// ReturnItemResponse is one refunded line
type ReturnItemResponse struct {
	ProductEAN   string          `json:"product_ean"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	VatRate      decimal.Decimal `json:"vat_rate"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	VatAmount    decimal.Decimal `json:"vat_amount"`
}

// ReturnResponse represents a completed return in API responses
type ReturnResponse struct {
	ID                    uuid.UUID            `json:"id"`
	ReturnNumber          string               `json:"return_number"`
	ReturnDate            time.Time            `json:"return_date"`
	OriginalReceiptID     uuid.UUID            `json:"original_receipt_id"`
	OriginalReceiptNumber string               `json:"original_receipt_number"`
	SellerName            string               `json:"seller_name"`
	Reason                string               `json:"reason,omitempty"`
	Items                 []ReturnItemResponse `json:"items"`
	TotalRefundAmount     decimal.Decimal      `json:"total_refund_amount"`
	TotalVat              decimal.Decimal      `json:"total_vat"`
	LoyaltyDiscountShare  decimal.Decimal      `json:"loyalty_discount_share"`
	AmountToRefund        decimal.Decimal      `json:"amount_to_refund"`
	FinalRefundRounded    decimal.Decimal      `json:"final_refund_rounded"`
	RefundRoundingAmount  decimal.Decimal      `json:"refund_rounding_amount"`
}

// ToReturnResponse converts a domain return to a response
func ToReturnResponse(r *trade.SalesReturn) ReturnResponse {
	resp := ReturnResponse{
		ID:                    r.ID,
		ReturnNumber:          r.ReturnNumber,
		ReturnDate:            r.ReturnDate,
		OriginalReceiptID:     r.OriginalReceiptID,
		OriginalReceiptNumber: r.OriginalReceiptNumber,
		SellerName:            r.SellerName,
		Reason:                r.Reason,
		Items:                 make([]ReturnItemResponse, 0, len(r.Items)),
		TotalRefundAmount:     r.TotalRefundAmount,
		TotalVat:              r.TotalVat,
		LoyaltyDiscountShare:  r.LoyaltyDiscountShare,
		AmountToRefund:        r.AmountToRefund,
		FinalRefundRounded:    r.FinalRefundRounded,
		RefundRoundingAmount:  r.RefundRoundingAmount,
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, ReturnItemResponse{
			ProductEAN:   item.ProductEAN,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			VatRate:      item.VatRate,
			RefundAmount: item.RefundAmount,
			VatAmount:    item.VatAmount,
		})
	}
	return resp
}
