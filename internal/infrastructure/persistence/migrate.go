package persistence

import (
	"fmt"

	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/inventory"
	"github.com/sklad/pos/internal/domain/partner"
	"github.com/sklad/pos/internal/domain/trade"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order
func Models() []any {
	return []any{
		&catalog.Product{},
		&inventory.StockMovement{},
		&partner.LoyaltyCustomer{},
		&giftcard.GiftCard{},
		&trade.Receipt{},
		&trade.ReceiptItem{},
		&trade.GiftCardRedemption{},
		&trade.SalesReturn{},
		&trade.SalesReturnItem{},
		&cashregister.Entry{},
		&closing.DailyClose{},
	}
}

// AutoMigrate creates or updates the tables of all models plus extra
func AutoMigrate(db *gorm.DB, extra ...any) error {
	if err := db.AutoMigrate(append(Models(), extra...)...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
