package closing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/closing"
)

// CloseDayRequest closes the open business day
type CloseDayRequest struct {
	SellerName string `json:"seller_name" binding:"max=100"`
}

// SalesSummaryResponse is the running aggregate of a business day
type SalesSummaryResponse struct {
	BusinessDate       string          `json:"business_date"`
	CashSales          decimal.Decimal `json:"cash_sales"`
	CardSales          decimal.Decimal `json:"card_sales"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	RefundTotal        decimal.Decimal `json:"refund_total"`
	VatTotal           decimal.Decimal `json:"vat_total"`
	ReceiptCount       int             `json:"receipt_count"`
	StornoCount        int             `json:"storno_count"`
	ReturnCount        int             `json:"return_count"`
	FirstReceiptNumber string          `json:"first_receipt_number,omitempty"`
	LastReceiptNumber  string          `json:"last_receipt_number,omitempty"`
	Closed             bool            `json:"closed"`
}

// ToSalesSummaryResponse converts a summary to a response
func ToSalesSummaryResponse(s closing.SalesSummary, closed bool) SalesSummaryResponse {
	return SalesSummaryResponse{
		BusinessDate:       s.BusinessDate.Format(time.DateOnly),
		CashSales:          s.CashSales,
		CardSales:          s.CardSales,
		TotalSales:         s.TotalSales,
		RefundTotal:        s.RefundTotal,
		VatTotal:           s.VatTotal,
		ReceiptCount:       s.ReceiptCount,
		StornoCount:        s.StornoCount,
		ReturnCount:        s.ReturnCount,
		FirstReceiptNumber: s.FirstReceiptNumber,
		LastReceiptNumber:  s.LastReceiptNumber,
		Closed:             closed,
	}
}

// DailyCloseResponse represents a stored daily close
type DailyCloseResponse struct {
	ID                 uuid.UUID        `json:"id"`
	BusinessDate       string           `json:"business_date"`
	CashSales          decimal.Decimal  `json:"cash_sales"`
	CardSales          decimal.Decimal  `json:"card_sales"`
	TotalSales         decimal.Decimal  `json:"total_sales"`
	RefundTotal        decimal.Decimal  `json:"refund_total"`
	VatTotal           *decimal.Decimal `json:"vat_total,omitempty"`
	ReceiptCount       int              `json:"receipt_count"`
	StornoCount        int              `json:"storno_count"`
	ReturnCount        int              `json:"return_count"`
	SellerName         string           `json:"seller_name"`
	FirstReceiptNumber string           `json:"first_receipt_number,omitempty"`
	LastReceiptNumber  string           `json:"last_receipt_number,omitempty"`
	ClosedAt           time.Time        `json:"closed_at"`
}

// ToDailyCloseResponse converts a daily close to a response
func ToDailyCloseResponse(dc *closing.DailyClose) DailyCloseResponse {
	return DailyCloseResponse{
		ID:                 dc.ID,
		BusinessDate:       dc.BusinessDate.Format(time.DateOnly),
		CashSales:          dc.CashSales,
		CardSales:          dc.CardSales,
		TotalSales:         dc.TotalSales,
		RefundTotal:        dc.RefundTotal,
		VatTotal:           dc.VatTotal,
		ReceiptCount:       dc.ReceiptCount,
		StornoCount:        dc.StornoCount,
		ReturnCount:        dc.ReturnCount,
		SellerName:         dc.SellerName,
		FirstReceiptNumber: dc.FirstReceiptNumber,
		LastReceiptNumber:  dc.LastReceiptNumber,
		ClosedAt:           dc.ClosedAt,
	}
}

// ExportDocument is a rendered period report
type ExportDocument struct {
	PeriodType  string `json:"period_type"`
	First       string `json:"first"`
	Last        string `json:"last"`
	CloseCount  int    `json:"close_count"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}
