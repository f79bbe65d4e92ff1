package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderledger-backend/pkg/enums"
)

// Product is read-only catalog data from the ledger's point of view.
type Product struct {
	ID                 int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	Code               string                   `gorm:"column:code;not null;uniqueIndex"`
	Description        string                   `gorm:"column:description;not null"`
	StockStatus        enums.ProductStockStatus `gorm:"column:stock_status;not null;default:1"`
	StockQuantity      int                      `gorm:"column:stock_quantity;not null;default:0"`
	ClosedBoxQuantity  int                      `gorm:"column:closed_box_quantity;not null;default:0"`
	ClosedBoxPrice     decimal.Decimal          `gorm:"column:closed_box_price;type:numeric(12,2);not null;default:0"`
	FractionalQuantity int                      `gorm:"column:fractional_quantity;not null;default:1"`
	FractionalPrice    decimal.Decimal          `gorm:"column:fractional_price;type:numeric(12,2);not null;default:0"`
	IPIApplicable      bool                     `gorm:"column:ipi_applicable;not null;default:false"`
	Season             *string                  `gorm:"column:season"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPriceFor selects the tier price for qty: the closed-box price once the
// threshold is met, the fractional price below it.
func (p Product) UnitPriceFor(qty int) decimal.Decimal {
	if p.ClosedBoxQuantity > 0 && qty >= p.ClosedBoxQuantity {
		return p.ClosedBoxPrice
	}
	return p.FractionalPrice
}
