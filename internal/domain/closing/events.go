package closing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// EventTypeDayClosed is published after a daily close commits
const EventTypeDayClosed = "DayClosed"

// DayClosedEvent announces a committed daily close
type DayClosedEvent struct {
	shared.BaseDomainEvent
	BusinessDate time.Time       `json:"business_date"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	SellerName   string          `json:"seller_name"`
}

// NewDayClosedEvent creates a new DayClosedEvent
func NewDayClosedEvent(dc *DailyClose) *DayClosedEvent {
	return &DayClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDayClosed, "DailyClose", dc.ID),
		BusinessDate:    dc.BusinessDate,
		TotalSales:      dc.TotalSales,
		SellerName:      dc.SellerName,
	}
}
