package inventory

import (
	"context"
	"testing"

	"github.com/sklad/pos/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockService_ImportProducts(t *testing.T) {
	ctx := context.Background()
	svc, _, logs := newTestService(t)
	createProduct(t, svc, "100", 5)
	createProduct(t, svc, "101", 2)

	result, err := svc.ImportProducts(ctx, []ImportProductRow{
		{Line: 2, EAN: "100", Name: "Hand cream", SalePrice: dec("89"), VatRate: dec("21"), Quantity: 7},
		{Line: 3, EAN: "101", Name: "Hand cream", SalePrice: dec("99.90"), VatRate: dec("21")},
		{Line: 4, EAN: "200", Name: "Lip balm", Category: "Cosmetics", PurchasePrice: dec("30"), SalePrice: dec("59"), VatRate: dec("21"), Quantity: 3},
		{Line: 5, EAN: "201", Name: "Broken", SalePrice: dec("10"), VatRate: dec("150"), Quantity: 1},
	}, clerk)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Restocked)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, ImportFailure{Line: 5, EAN: "201", Code: "INVALID_VAT_RATE", Message: result.Failures[0].Message}, result.Failures[0])
	assert.Equal(t, 1, logs.FilterMessage("Product import finished").Len())

	restocked, err := svc.GetProduct(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, 12, restocked.StockQuantity)
	assert.True(t, restocked.SalePrice.Equal(dec("99.90")), "known products keep their price")

	movements := collect(t, svc, inventory.MovementQuery{ProductEAN: "100", Type: inventory.MovementTypeStockIn})
	require.Len(t, movements, 1)
	assert.Equal(t, 7, movements[0].QuantityChange)
	assert.Equal(t, "import", movements[0].Note)

	created, err := svc.GetProduct(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, 3, created.StockQuantity)
	assert.Equal(t, "Cosmetics", created.Category)

	_, err = svc.GetProduct(ctx, "201")
	require.Error(t, err)

	verification, err := svc.VerifyStock(ctx, "200")
	require.NoError(t, err)
	assert.True(t, verification.Consistent)
}

func TestStockService_ImportProducts_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ImportProducts(context.Background(), nil, clerk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}
