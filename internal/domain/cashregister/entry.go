package cashregister

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
)

// EntryType enumerates cash-register ledger movements
type EntryType string

const (
	EntryTypeInitialDeposit      EntryType = "INITIAL_DEPOSIT"
	EntryTypeSale                EntryType = "SALE"
	EntryTypeWithdrawal          EntryType = "WITHDRAWAL"
	EntryTypeDeposit             EntryType = "DEPOSIT"
	EntryTypeReturn              EntryType = "RETURN"
	EntryTypeDailyReconciliation EntryType = "DAILY_RECONCILIATION"
	EntryTypeDayStart            EntryType = "DAY_START"
	EntryTypeDayClose            EntryType = "DAY_CLOSE"
)

// Effect is how an entry type changes the running balance
type Effect int

const (
	EffectAdd Effect = iota
	EffectSubtract
	EffectSet
)

// IsValid returns true if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeInitialDeposit, EntryTypeSale, EntryTypeWithdrawal, EntryTypeDeposit,
		EntryTypeReturn, EntryTypeDailyReconciliation, EntryTypeDayStart, EntryTypeDayClose:
		return true
	}
	return false
}

// Effect returns the sign rule of the type
func (t EntryType) Effect() Effect {
	switch t {
	case EntryTypeWithdrawal, EntryTypeDailyReconciliation, EntryTypeReturn:
		return EffectSubtract
	case EntryTypeDayStart, EntryTypeDayClose:
		return EffectSet
	default:
		return EffectAdd
	}
}

// IsManual reports whether an operator may book this type directly
func (t EntryType) IsManual() bool {
	switch t {
	case EntryTypeInitialDeposit, EntryTypeDeposit, EntryTypeWithdrawal, EntryTypeDailyReconciliation:
		return true
	}
	return false
}

// ApplySign computes the balance after an entry of type t with amount
func ApplySign(t EntryType, amount, previous decimal.Decimal) decimal.Decimal {
	switch t.Effect() {
	case EffectSubtract:
		return previous.Sub(amount)
	case EffectSet:
		return amount
	default:
		return previous.Add(amount)
	}
}

// Entry is one append-only ledger row. Balance is the till balance after
// this entry; entries are never updated or deleted.
//
// For DAY_START and DAY_CLOSE, Amount is the counted cash and becomes the
// balance. A DAY_CLOSE also keeps counted minus system balance in
// Difference; Difference is zero on every other type.
type Entry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Sequence    int64           `gorm:"not null;uniqueIndex"`
	Timestamp   time.Time       `gorm:"not null;index"`
	Type        EntryType       `gorm:"type:varchar(30);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Difference  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Description string          `gorm:"type:varchar(500)"`
	UserName    string          `gorm:"type:varchar(100)"`
	ReferenceID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "cash_register_entries"
}

// NewEntry builds the entry that follows previous (nil for the first one)
func NewEntry(previous *Entry, t EntryType, amount decimal.Decimal, description, user string, at time.Time) (*Entry, error) {
	if !t.IsValid() {
		return nil, shared.NewValidationError("INVALID_ENTRY_TYPE", "Invalid cash register entry type")
	}
	balance, seq := decimal.Zero, int64(1)
	if previous != nil {
		balance = previous.Balance
		seq = previous.Sequence + 1
	}
	return &Entry{
		ID:          uuid.New(),
		Sequence:    seq,
		Timestamp:   at.UTC(),
		Type:        t,
		Amount:      amount,
		Balance:     ApplySign(t, amount, balance),
		Difference:  decimal.Zero,
		Description: strings.TrimSpace(description),
		UserName:    strings.TrimSpace(user),
	}, nil
}

// Divergence describes the first ledger row whose stored balance disagrees
// with a replay of all earlier rows
type Divergence struct {
	Entry    Entry
	Expected decimal.Decimal
}

// Replay recomputes the running balance over entries (oldest first)
func Replay(entries []Entry) (decimal.Decimal, *Divergence) {
	balance := decimal.Zero
	for _, e := range entries {
		expected := ApplySign(e.Type, e.Amount, balance)
		if !expected.Equal(e.Balance) {
			return balance, &Divergence{Entry: e, Expected: expected}
		}
		balance = e.Balance
	}
	return balance, nil
}
