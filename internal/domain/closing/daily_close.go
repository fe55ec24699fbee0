package closing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

var (
	// ErrAlreadyClosed is returned when the business date already has a close
	ErrAlreadyClosed = shared.NewDomainError("ALREADY_CLOSED", "This business day is already closed")
	// ErrNothingToClose is returned when the business date has no sales
	ErrNothingToClose = shared.NewDomainError("NOTHING_TO_CLOSE", "There are no receipts to close for this business day")
	// ErrNoDataForPeriod is returned when an export finds no closes
	ErrNoDataForPeriod = shared.NewDomainError("NO_DATA_FOR_PERIOD", "No daily closes found for the selected period")
)

// BusinessDate normalizes a local calendar date to midnight UTC so that one
// day maps to exactly one key regardless of the time zone it was taken in.
func BusinessDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SalesSummary aggregates the receipts and returns of one business day
type SalesSummary struct {
	BusinessDate       time.Time
	CashSales          decimal.Decimal
	CardSales          decimal.Decimal
	TotalSales         decimal.Decimal
	RefundTotal        decimal.Decimal
	VatTotal           decimal.Decimal
	ReceiptCount       int
	StornoCount        int
	ReturnCount        int
	FirstReceiptNumber string
	LastReceiptNumber  string
}

// NewSalesSummary returns an empty summary for the date
func NewSalesSummary(date time.Time) SalesSummary {
	return SalesSummary{
		BusinessDate: BusinessDate(date),
		CashSales:    decimal.Zero,
		CardSales:    decimal.Zero,
		TotalSales:   decimal.Zero,
		RefundTotal:  decimal.Zero,
		VatTotal:     decimal.Zero,
	}
}

// DailyClose is the immutable end-of-day record of one business date
type DailyClose struct {
	shared.BaseEntity
	BusinessDate       time.Time        `gorm:"not null;uniqueIndex"`
	CashSales          decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	CardSales          decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	TotalSales         decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	RefundTotal        decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	VatTotal           *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ReceiptCount       int              `gorm:"not null"`
	StornoCount        int              `gorm:"not null;default:0"`
	ReturnCount        int              `gorm:"not null;default:0"`
	SellerName         string           `gorm:"type:varchar(100);not null"`
	FirstReceiptNumber string           `gorm:"type:varchar(20)"`
	LastReceiptNumber  string           `gorm:"type:varchar(20)"`
	ClosedAt           time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DailyClose) TableName() string {
	return "daily_closes"
}

// NewDailyClose freezes a summary into a close record. VAT is kept only for
// VAT payers.
func NewDailyClose(summary SalesSummary, seller string, vatPayer bool, closedAt time.Time) (*DailyClose, error) {
	seller = strings.TrimSpace(seller)
	if seller == "" {
		return nil, shared.NewValidationError("INVALID_SELLER", "Seller name is required")
	}
	if summary.ReceiptCount == 0 {
		return nil, ErrNothingToClose.WithDetail("business_date", summary.BusinessDate.Format(time.DateOnly))
	}
	dc := &DailyClose{
		BaseEntity:         shared.NewBaseEntity(),
		BusinessDate:       BusinessDate(summary.BusinessDate),
		CashSales:          summary.CashSales,
		CardSales:          summary.CardSales,
		TotalSales:         summary.TotalSales,
		RefundTotal:        summary.RefundTotal,
		ReceiptCount:       summary.ReceiptCount,
		StornoCount:        summary.StornoCount,
		ReturnCount:        summary.ReturnCount,
		SellerName:         seller,
		FirstReceiptNumber: summary.FirstReceiptNumber,
		LastReceiptNumber:  summary.LastReceiptNumber,
		ClosedAt:           closedAt.UTC(),
	}
	if vatPayer {
		vat := summary.VatTotal
		dc.VatTotal = &vat
	}
	return dc, nil
}
