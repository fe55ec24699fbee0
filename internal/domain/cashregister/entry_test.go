package cashregister

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplySign(t *testing.T) {
	prev := dec("1000")
	tests := []struct {
		t    EntryType
		want string
	}{
		{EntryTypeDeposit, "1100"},
		{EntryTypeSale, "1100"},
		{EntryTypeInitialDeposit, "1100"},
		{EntryTypeWithdrawal, "900"},
		{EntryTypeDailyReconciliation, "900"},
		{EntryTypeReturn, "900"},
		{EntryTypeDayStart, "100"},
		{EntryTypeDayClose, "100"},
	}
	for _, tt := range tests {
		t.Run(string(tt.t), func(t *testing.T) {
			assert.True(t, ApplySign(tt.t, dec("100"), prev).Equal(dec(tt.want)))
		})
	}
}

func TestNewEntry_ChainAndReplay(t *testing.T) {
	at := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)

	start, err := NewEntry(nil, EntryTypeDayStart, dec("2000"), "open", "eva", at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), start.Sequence)

	sale, err := NewEntry(start, EntryTypeSale, dec("911"), "U0001/2025", "eva", at.Add(time.Hour))
	require.NoError(t, err)
	refund, err := NewEntry(sale, EntryTypeReturn, dec("411"), "R0001/2025", "eva", at.Add(2*time.Hour))
	require.NoError(t, err)
	storno, err := NewEntry(refund, EntryTypeSale, dec("-911"), "storno", "eva", at.Add(3*time.Hour))
	require.NoError(t, err)

	assert.True(t, storno.Balance.Equal(dec("1589")))
	assert.Equal(t, int64(4), storno.Sequence)

	balance, div := Replay([]Entry{*start, *sale, *refund, *storno})
	assert.Nil(t, div)
	assert.True(t, balance.Equal(storno.Balance))

	tampered := *refund
	tampered.Balance = dec("2400")
	_, div = Replay([]Entry{*start, *sale, tampered, *storno})
	require.NotNil(t, div)
	assert.Equal(t, refund.ID, div.Entry.ID)
	assert.True(t, div.Expected.Equal(dec("2500")))

	_, err = NewEntry(nil, EntryType("BOGUS"), dec("1"), "", "", at)
	assert.Error(t, err)
}

func TestEntryType_IsManual(t *testing.T) {
	assert.True(t, EntryTypeDeposit.IsManual())
	assert.True(t, EntryTypeWithdrawal.IsManual())
	assert.False(t, EntryTypeSale.IsManual())
	assert.False(t, EntryTypeDayClose.IsManual())
}
