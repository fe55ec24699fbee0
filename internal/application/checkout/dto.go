package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/trade"
)

// CheckoutLine is one scanned product on the cart
type CheckoutLine struct {
	EAN                   string           `json:"ean" binding:"required,max=32"`
	Quantity              int              `json:"quantity" binding:"required,min=1"`
	ManualDiscountPercent *decimal.Decimal `json:"manual_discount_percent"`
	DiscountReason        string           `json:"discount_reason" binding:"max=200"`
}

// CheckoutRequest is a complete cart ready to be paid
type CheckoutRequest struct {
	Lines             []CheckoutLine   `json:"lines" binding:"dive"`
	PaymentMethod     string           `json:"payment_method" binding:"required,oneof=CASH CARD"`
	LoyaltyCustomerID *uuid.UUID       `json:"loyalty_customer_id"`
	GiftCardCodes     []string         `json:"gift_card_codes" binding:"dive,required,max=64"`
	GiftCardsToSell   []string         `json:"gift_cards_to_sell" binding:"dive,required,max=64"`
	ReceivedAmount    *decimal.Decimal `json:"received_amount"`
}

// StornoRequest cancels a completed receipt
type StornoRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReceiptItemResponse is one receipt line
type ReceiptItemResponse struct {
	LineNo            int             `json:"line_no"`
	ProductEAN        string          `json:"product_ean"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	OriginalUnitPrice decimal.Decimal `json:"original_unit_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	DiscountReason    string          `json:"discount_reason,omitempty"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	VatRate           decimal.Decimal `json:"vat_rate"`
	LineTotal         decimal.Decimal `json:"line_total"`
	LineVat           decimal.Decimal `json:"line_vat"`
	IsGiftCard        bool            `json:"is_gift_card,omitempty"`
}

// VatRateResponse is one row of the VAT summary
type VatRateResponse struct {
	Rate  decimal.Decimal `json:"rate"`
	Net   decimal.Decimal `json:"net"`
	Vat   decimal.Decimal `json:"vat"`
	Gross decimal.Decimal `json:"gross"`
}

// RedemptionResponse is a gift card used as payment
type RedemptionResponse struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// ReceiptResponse is the finalized receipt handed to printing and the UI
type ReceiptResponse struct {
	ID                     uuid.UUID             `json:"id"`
	ReceiptNumber          string                `json:"receipt_number"`
	SaleDate               time.Time             `json:"sale_date"`
	SellerName             string                `json:"seller_name"`
	PaymentMethod          string                `json:"payment_method"`
	Items                  []ReceiptItemResponse `json:"items"`
	VatBreakdown           []VatRateResponse     `json:"vat_breakdown,omitempty"`
	GiftCards              []RedemptionResponse  `json:"gift_cards,omitempty"`
	TotalAmount            decimal.Decimal       `json:"total_amount"`
	TotalVat               decimal.Decimal       `json:"total_vat"`
	TotalWithoutVat        decimal.Decimal       `json:"total_without_vat"`
	LoyaltyCustomerID      *uuid.UUID            `json:"loyalty_customer_id,omitempty"`
	LoyaltyDiscountPercent decimal.Decimal       `json:"loyalty_discount_percent"`
	LoyaltyDiscountAmount  decimal.Decimal       `json:"loyalty_discount_amount"`
	GiftCardAmount         decimal.Decimal       `json:"gift_card_amount"`
	AmountToPay            decimal.Decimal       `json:"amount_to_pay"`
	FinalAmountRounded     decimal.Decimal       `json:"final_amount_rounded"`
	RoundingAmount         decimal.Decimal       `json:"rounding_amount"`
	ReceivedAmount         decimal.Decimal       `json:"received_amount"`
	ChangeAmount           decimal.Decimal       `json:"change_amount"`
	IsStorno               bool                  `json:"is_storno"`
	OriginalReceiptID      *uuid.UUID            `json:"original_receipt_id,omitempty"`
	StornoReason           string                `json:"storno_reason,omitempty"`
}

// ToReceiptResponse converts a domain receipt to a response
func ToReceiptResponse(r *trade.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:                     r.ID,
		ReceiptNumber:          r.ReceiptNumber,
		SaleDate:               r.SaleDate,
		SellerName:             r.SellerName,
		PaymentMethod:          string(r.PaymentMethod),
		Items:                  make([]ReceiptItemResponse, 0, len(r.Items)),
		TotalAmount:            r.TotalAmount,
		TotalVat:               r.TotalVat,
		TotalWithoutVat:        r.TotalWithoutVat,
		LoyaltyCustomerID:      r.LoyaltyCustomerID,
		LoyaltyDiscountPercent: r.LoyaltyDiscountPercent,
		LoyaltyDiscountAmount:  r.LoyaltyDiscountAmount,
		GiftCardAmount:         r.GiftCardAmount,
		AmountToPay:            r.AmountToPay,
		FinalAmountRounded:     r.FinalAmountRounded,
		RoundingAmount:         r.RoundingAmount,
		ReceivedAmount:         r.ReceivedAmount,
		ChangeAmount:           r.ChangeAmount,
		IsStorno:               r.IsStorno,
		OriginalReceiptID:      r.OriginalReceiptID,
		StornoReason:           r.StornoReason,
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, ReceiptItemResponse{
			LineNo:            item.LineNo,
			ProductEAN:        item.ProductEAN,
			ProductName:       item.ProductName,
			Quantity:          item.Quantity,
			OriginalUnitPrice: item.OriginalUnitPrice,
			DiscountPercent:   item.DiscountPercent,
			DiscountReason:    item.DiscountReason,
			UnitPrice:         item.UnitPrice,
			VatRate:           item.VatRate,
			LineTotal:         item.LineTotal,
			LineVat:           item.LineVat,
			IsGiftCard:        item.IsGiftCard,
		})
	}
	for _, b := range r.VatBreakdown() {
		resp.VatBreakdown = append(resp.VatBreakdown, VatRateResponse{Rate: b.Rate, Net: b.Net, Vat: b.Vat, Gross: b.Gross})
	}
	for _, g := range r.GiftCardRedemptions {
		resp.GiftCards = append(resp.GiftCards, RedemptionResponse{Code: g.GiftCardCode, Amount: g.Amount})
	}
	return resp
}
