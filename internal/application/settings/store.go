package settings

import (
	"sync"
	"time"
)

// ShopIdentity is printed on receipts and exports
type ShopIdentity struct {
	Name     string
	Address  string
	TaxID    string
	VatID    string
	Currency string
	Locale   string
	VatPayer bool
}

// Store is the small set of mutable shop settings the money-flow
// services depend on. Dates are business dates (midnight UTC).
type Store interface {
	Shop() ShopIdentity
	IsVATPayer() bool
	SessionStartDate() (time.Time, bool)
	SetSessionStartDate(date time.Time) error
	LastCloseDate() (time.Time, bool)
	SetLastCloseDate(date time.Time) error
}

// MemoryStore keeps settings in memory. Used by tests and as a fallback
// when no settings file is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	shop         ShopIdentity
	sessionStart *time.Time
	lastClose    *time.Time
}

// NewMemoryStore creates a MemoryStore for the given shop
func NewMemoryStore(shop ShopIdentity) *MemoryStore {
	return &MemoryStore{shop: shop}
}

// Shop returns the shop identity
func (s *MemoryStore) Shop() ShopIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shop
}

// IsVATPayer reports whether prices carry VAT
func (s *MemoryStore) IsVATPayer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shop.VatPayer
}

// SessionStartDate returns the business date of the open session
func (s *MemoryStore) SessionStartDate() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessionStart == nil {
		return time.Time{}, false
	}
	return *s.sessionStart, true
}

// SetSessionStartDate stores the business date of the open session
func (s *MemoryStore) SetSessionStartDate(date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionStart = &date
	return nil
}

// LastCloseDate returns the business date of the last daily close
func (s *MemoryStore) LastCloseDate() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastClose == nil {
		return time.Time{}, false
	}
	return *s.lastClose, true
}

// SetLastCloseDate stores the business date of the last daily close
func (s *MemoryStore) SetLastCloseDate(date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastClose = &date
	return nil
}

var _ Store = (*MemoryStore)(nil)
