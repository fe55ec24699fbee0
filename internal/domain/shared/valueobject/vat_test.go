package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitVat(t *testing.T) {
	tests := []struct {
		name    string
		gross   string
		rate    string
		wantNet string
		wantVat string
	}{
		{"standard rate exact", "121", "21", "100", "21"},
		{"standard rate rounding", "100", "21", "82.64", "17.36"},
		{"reduced rate", "112", "12", "100", "12"},
		{"zero rate", "50", "0", "50", "0"},
		{"rate above 100 is fully net", "50", "150", "50", "0"},
		{"negative rate is fully net", "50", "-5", "50", "0"},
		{"negative gross (storno)", "-121", "21", "-100", "-21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, vat := SplitVat(d(tt.gross), d(tt.rate))
			assert.True(t, net.Equal(d(tt.wantNet)), "net %s", net)
			assert.True(t, vat.Equal(d(tt.wantVat)), "vat %s", vat)
			assert.True(t, net.Add(vat).Equal(d(tt.gross)))
		})
	}
}

func TestIsValidVatRate(t *testing.T) {
	assert.True(t, IsValidVatRate(d("0")))
	assert.True(t, IsValidVatRate(d("21")))
	assert.True(t, IsValidVatRate(d("100")))
	assert.False(t, IsValidVatRate(d("100.01")))
	assert.False(t, IsValidVatRate(d("-1")))
}

func TestVatBreakdown(t *testing.T) {
	buckets := VatBreakdown([]VatLine{
		{Rate: d("21"), Gross: d("60.50")},
		{Rate: d("12"), Gross: d("112")},
		{Rate: d("21"), Gross: d("60.50")},
	})

	require.Len(t, buckets, 2)
	assert.True(t, buckets[0].Rate.Equal(d("12")))
	assert.True(t, buckets[0].Vat.Equal(d("12")))
	assert.True(t, buckets[1].Rate.Equal(d("21")))
	assert.True(t, buckets[1].Gross.Equal(d("121")))
	assert.True(t, buckets[1].Net.Equal(d("100")))
	assert.True(t, SumVat(buckets).Equal(d("33")))
}
