package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/shared"
)

// MovementType represents the reason a product's quantity on hand changed
type MovementType string

const (
	// MovementTypeProductCreated books the initial stock of a new product
	MovementTypeProductCreated MovementType = "PRODUCT_CREATED"
	// MovementTypeStockIn books delivered goods
	MovementTypeStockIn MovementType = "STOCK_IN"
	// MovementTypeSale books goods leaving on a receipt
	MovementTypeSale MovementType = "SALE"
	// MovementTypeReturn books goods coming back from a return or storno
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeAdjustment books a stock count correction
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	// MovementTypeWriteOffTester books goods opened as testers
	MovementTypeWriteOffTester MovementType = "WRITE_OFF_TESTER"
	// MovementTypeWriteOffDamaged books damaged goods
	MovementTypeWriteOffDamaged MovementType = "WRITE_OFF_DAMAGED"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeProductCreated,
		MovementTypeStockIn,
		MovementTypeSale,
		MovementTypeReturn,
		MovementTypeAdjustment,
		MovementTypeWriteOffTester,
		MovementTypeWriteOffDamaged:
		return true
	}
	return false
}

// allowsDelta checks the sign convention of each type. Adjustments go either way.
func (t MovementType) allowsDelta(delta int) bool {
	switch t {
	case MovementTypeProductCreated:
		return delta >= 0
	case MovementTypeStockIn, MovementTypeReturn:
		return delta > 0
	case MovementTypeSale, MovementTypeWriteOffTester, MovementTypeWriteOffDamaged:
		return delta < 0
	case MovementTypeAdjustment:
		return delta != 0
	}
	return false
}

// StockMovement is an immutable record of one change to a product's
// quantity on hand. Corrections are new movements, never edits.
type StockMovement struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ProductID      uuid.UUID    `gorm:"type:uuid;not null"`
	ProductEAN     string       `gorm:"type:varchar(32);not null;index:idx_stock_mv_ean_time,priority:1"`
	ProductName    string       `gorm:"type:varchar(200);not null"`
	Type           MovementType `gorm:"type:varchar(30);not null;index"`
	QuantityChange int          `gorm:"not null"`
	StockBefore    int          `gorm:"not null"`
	StockAfter     int          `gorm:"not null"`
	CreatedAt      time.Time    `gorm:"not null;index:idx_stock_mv_ean_time,priority:2;index"`
	UserName       string       `gorm:"type:varchar(100);not null"`
	Note           string       `gorm:"type:varchar(500)"`
	ReferenceID    *uuid.UUID   `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// Record applies delta to the product's live quantity and returns the
// movement describing the change. The product is left untouched on error.
func Record(product *catalog.Product, movementType MovementType, delta int, user, note string, referenceID *uuid.UUID, at time.Time) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", "Invalid stock movement type")
	}
	if !movementType.allowsDelta(delta) {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity change does not match the movement type")
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, shared.NewValidationError("INVALID_USER", "Acting user is required")
	}

	before, after, err := product.ApplyStockChange(delta)
	if err != nil {
		return nil, err
	}

	return &StockMovement{
		ID:             uuid.New(),
		ProductID:      product.ID,
		ProductEAN:     product.EAN,
		ProductName:    product.Name,
		Type:           movementType,
		QuantityChange: delta,
		StockBefore:    before,
		StockAfter:     after,
		CreatedAt:      at.UTC(),
		UserName:       user,
		Note:           strings.TrimSpace(note),
		ReferenceID:    referenceID,
	}, nil
}

// Replay folds movements (oldest first) into the resulting quantity and
// reports the first movement whose before/after snapshot breaks the chain.
func Replay(movements []StockMovement) (quantity int, broken *StockMovement) {
	for i := range movements {
		m := &movements[i]
		if m.StockBefore != quantity || m.StockAfter != quantity+m.QuantityChange {
			return quantity, m
		}
		quantity = m.StockAfter
	}
	return quantity, nil
}
