package cashregister

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/cashregister"
)

// RecordEntryRequest books a manual till movement
type RecordEntryRequest struct {
	Type        string          `json:"type" binding:"required,oneof=INITIAL_DEPOSIT DEPOSIT WITHDRAWAL DAILY_RECONCILIATION"`
	Amount      decimal.Decimal `json:"amount" binding:"money"`
	Description string          `json:"description" binding:"max=500"`
}

// StartDayRequest opens the drawer with a counted float
type StartDayRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" binding:"money"`
}

// DayCloseRequest closes the drawer with the counted cash
type DayCloseRequest struct {
	CountedAmount decimal.Decimal `json:"counted_amount" binding:"money"`
}

// EntryResponse represents a ledger entry in API responses. On a DAY_CLOSE
// the amount is the counted cash and difference is counted minus system.
type EntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	Sequence    int64           `json:"sequence"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount" binding:"money"`
	Balance     decimal.Decimal `json:"balance"`
	Difference  decimal.Decimal `json:"difference"`
	Description string          `json:"description,omitempty"`
	UserName    string          `json:"user_name,omitempty"`
	ReferenceID *uuid.UUID      `json:"reference_id,omitempty"`
}

// BalanceResponse is the till balance as stored on the latest entry
type BalanceResponse struct {
	Balance      decimal.Decimal `json:"balance"`
	LastSequence int64           `json:"last_sequence"`
	AsOf         *time.Time      `json:"as_of,omitempty"`
}

// LedgerVerification compares stored balances with a replay of the ledger
type LedgerVerification struct {
	EntryCount       int              `json:"entry_count"`
	StoredBalance    decimal.Decimal  `json:"stored_balance"`
	ReplayedBalance  decimal.Decimal  `json:"replayed_balance"`
	Consistent       bool             `json:"consistent"`
	DivergentEntryID *uuid.UUID       `json:"divergent_entry_id,omitempty"`
	DivergentSeq     int64            `json:"divergent_sequence,omitempty"`
	ExpectedBalance  *decimal.Decimal `json:"expected_balance,omitempty"`
}

// ToEntryResponse converts a ledger entry to a response
func ToEntryResponse(e *cashregister.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Sequence:    e.Sequence,
		Timestamp:   e.Timestamp,
		Type:        string(e.Type),
		Amount:      e.Amount,
		Balance:     e.Balance,
		Difference:  e.Difference,
		Description: e.Description,
		UserName:    e.UserName,
		ReferenceID: e.ReferenceID,
	}
}
