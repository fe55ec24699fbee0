package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	keySessionStart = "session.start_date"
	keyLastClose    = "session.last_close_date"
	keyVatPayer     = "shop.vat_payer"
)

// ViperStore keeps the mutable settings in a JSON file next to the static
// configuration. Every setter rewrites the file. A vat_payer value in the
// file overrides the configured shop identity.
type ViperStore struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
	shop ShopIdentity
}

// NewViperStore opens the settings file at path. A missing file is created
// on the first write.
func NewViperStore(path string, shop ShopIdentity) (*ViperStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading settings file %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error opening settings file %s: %w", path, err)
	}

	if v.IsSet(keyVatPayer) {
		shop.VatPayer = v.GetBool(keyVatPayer)
	}
	return &ViperStore{v: v, path: path, shop: shop}, nil
}

// Shop returns the shop identity
func (s *ViperStore) Shop() ShopIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shop
}

// IsVATPayer reports whether prices carry VAT
func (s *ViperStore) IsVATPayer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shop.VatPayer
}

// SessionStartDate returns the business date of the open session
func (s *ViperStore) SessionStartDate() (time.Time, bool) {
	return s.date(keySessionStart)
}

// SetSessionStartDate stores the business date of the open session
func (s *ViperStore) SetSessionStartDate(date time.Time) error {
	return s.setDate(keySessionStart, date)
}

// LastCloseDate returns the business date of the last daily close
func (s *ViperStore) LastCloseDate() (time.Time, bool) {
	return s.date(keyLastClose)
}

// SetLastCloseDate stores the business date of the last daily close
func (s *ViperStore) SetLastCloseDate(date time.Time) error {
	return s.setDate(keyLastClose, date)
}

func (s *ViperStore) date(key string) (time.Time, bool) {
	s.mu.RLock()
	raw := s.v.GetString(key)
	s.mu.RUnlock()
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func (s *ViperStore) setDate(key string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.v.Get(key)
	s.v.Set(key, date.Format(time.DateOnly))
	if err := s.v.WriteConfigAs(s.path); err != nil {
		s.v.Set(key, previous)
		return fmt.Errorf("error writing settings file %s: %w", s.path, err)
	}
	return nil
}

var _ Store = (*ViperStore)(nil)
