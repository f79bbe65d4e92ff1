package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderledger-backend/internal/testdb"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
)

func seedProduct(t *testing.T, conn *gorm.DB, code string, stock enums.ProductStockStatus, season *string) models.Product {
	t.Helper()
	p := models.Product{
		Code:               code,
		Description:        "Product " + code,
		StockStatus:        stock,
		ClosedBoxQuantity:  10,
		ClosedBoxPrice:     decimal.RequireFromString("9.00"),
		FractionalQuantity: 1,
		FractionalPrice:    decimal.RequireFromString("10.00"),
		IPIApplicable:      true,
		Season:             season,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func strPtr(v string) *string { return &v }

func TestListProductsFiltersStockAndSeason(t *testing.T) {
	conn := testdb.Open(t)
	seedProduct(t, conn, "A1", enums.ProductStockIn, strPtr("summer"))
	seedProduct(t, conn, "A2", enums.ProductStockOut, strPtr("winter"))
	seedProduct(t, conn, "A3", enums.ProductStockDiscontinued, strPtr("summer"))

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	all, err := svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A1", all[0].Code)
	assert.Equal(t, "A2", all[1].Code)

	summer, err := svc.ListProducts(context.Background(), "summer")
	require.NoError(t, err)
	require.Len(t, summer, 1)
	assert.Equal(t, "A1", summer[0].Code)
}

func TestGetPricing(t *testing.T) {
	conn := testdb.Open(t)
	seedProduct(t, conn, "P1", enums.ProductStockIn, nil)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	pricing, err := svc.GetPricing(context.Background(), " P1 ")
	require.NoError(t, err)
	assert.Equal(t, 10, pricing.ClosedBoxQuantity)
	assert.True(t, pricing.ClosedBoxPrice.Equal(decimal.RequireFromString("9")))
	assert.True(t, pricing.FractionalPrice.Equal(decimal.RequireFromString("10")))
	assert.True(t, pricing.IPIApplicable)

	_, err = svc.GetPricing(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "missing")

	_, err = svc.GetPricing(context.Background(), "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUnitPriceForTiers(t *testing.T) {
	p := models.Product{
		ClosedBoxQuantity: 10,
		ClosedBoxPrice:    decimal.RequireFromString("9.00"),
		FractionalPrice:   decimal.RequireFromString("10.00"),
	}
	assert.Equal(t, "9.00", p.UnitPriceFor(10).StringFixed(2))
	assert.Equal(t, "9.00", p.UnitPriceFor(25).StringFixed(2))
	assert.Equal(t, "10.00", p.UnitPriceFor(9).StringFixed(2))

	p.ClosedBoxQuantity = 0
	assert.Equal(t, "10.00", p.UnitPriceFor(100).StringFixed(2))
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
