package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViperStore_PersistsDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	shop := ShopIdentity{Name: "Drogerie U Lípy", Currency: "CZK", VatPayer: true}

	store, err := NewViperStore(path, shop)
	require.NoError(t, err)
	_, ok := store.SessionStartDate()
	assert.False(t, ok)
	_, ok = store.LastCloseDate()
	assert.False(t, ok)

	session := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	closed := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetSessionStartDate(session))
	require.NoError(t, store.SetLastCloseDate(closed))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2025-06-09")

	reopened, err := NewViperStore(path, shop)
	require.NoError(t, err)
	got, ok := reopened.SessionStartDate()
	require.True(t, ok)
	assert.Equal(t, session, got)
	got, ok = reopened.LastCloseDate()
	require.True(t, ok)
	assert.Equal(t, closed, got)
	assert.Equal(t, "Drogerie U Lípy", reopened.Shop().Name)
	assert.True(t, reopened.IsVATPayer())
}

func TestViperStore_VatPayerOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shop":{"vat_payer":false}}`), 0o600))

	store, err := NewViperStore(path, ShopIdentity{VatPayer: true})
	require.NoError(t, err)
	assert.False(t, store.IsVATPayer())
	assert.False(t, store.Shop().VatPayer)
}

func TestViperStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session":`), 0o600))

	_, err := NewViperStore(path, ShopIdentity{})
	assert.ErrorContains(t, err, "error reading settings file")
}

func TestViperStore_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "settings.json")
	store, err := NewViperStore(path, ShopIdentity{})
	require.NoError(t, err)

	err = store.SetLastCloseDate(time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	_, ok := store.LastCloseDate()
	assert.False(t, ok, "failed write leaves the previous value")
}
