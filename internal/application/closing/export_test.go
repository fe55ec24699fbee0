package closing

import (
	"testing"

	"github.com/sklad/pos/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMoneyFormat(t *testing.T) {
	en := newMoneyFormat(language.English, valueobject.DefaultCurrency)
	cs := newMoneyFormat(language.Czech, valueobject.DefaultCurrency)

	tests := []struct {
		name   string
		format moneyFormat
		amount string
		want   string
	}{
		{"grouping", en, "1234567.89", "1,234,567.89 CZK"},
		{"digits beyond float precision", en, "98765432109876.54", "98,765,432,109,876.54 CZK"},
		{"half up to haler", en, "10.005", "10.01 CZK"},
		{"negative fraction", en, "-0.5", "-0.50 CZK"},
		{"zero", en, "0", "0.00 CZK"},
		{"czech separators", cs, "12345.5", "12\u00a0345,50 CZK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.format(tt.format.money(dec(tt.amount))))
		})
	}
}
