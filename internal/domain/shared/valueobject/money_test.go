package valueobject

import (
	"errors"
	"testing"

	"github.com/sklad/pos/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(d("100.50"), CZK)
	require.NoError(t, err)
	assert.Equal(t, CZK, m.Currency())
	assert.True(t, m.Amount().Equal(d("100.50")))
	assert.Equal(t, "100.50 CZK", m.String())

	_, err = NewMoney(d("1"), "")
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_CURRENCY", de.Code)
}

func TestMoney_Add(t *testing.T) {
	sum, err := NewMoneyCZK(d("100.50")).Add(NewMoneyCZK(d("0.25")))
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(d("100.75")))
	assert.Equal(t, DefaultCurrency, sum.Currency())

	eur, err := NewMoney(d("1"), EUR)
	require.NoError(t, err)
	_, err = sum.Add(eur)
	assert.Error(t, err)
}

func TestMoney_RoundCash(t *testing.T) {
	assert.True(t, NewMoneyCZK(d("100.50")).RoundCash().Amount().Equal(d("101")))
	assert.True(t, NewMoneyCZK(d("-0.50")).RoundCash().Amount().Equal(d("-1")))
	assert.True(t, NewMoneyCZK(d("100.49")).RoundCash().Amount().Equal(d("100")))
}
