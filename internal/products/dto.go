package product

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
)

// ProductDTO is the catalog entry returned by the listing.
type ProductDTO struct {
	ID                 int64                    `json:"id"`
	Code               string                   `json:"code"`
	Description        string                   `json:"description"`
	StockStatus        enums.ProductStockStatus `json:"stock_status"`
	StockQuantity      int                      `json:"stock_quantity"`
	ClosedBoxQuantity  int                      `json:"closed_box_quantity"`
	ClosedBoxPrice     decimal.Decimal          `json:"closed_box_price"`
	FractionalQuantity int                      `json:"fractional_quantity"`
	FractionalPrice    decimal.Decimal          `json:"fractional_price"`
	IPIApplicable      bool                     `json:"ipi_applicable"`
	Season             *string                  `json:"season,omitempty"`
}

// PricingDTO carries the fields a client needs to price an order line.
type PricingDTO struct {
	ID                 int64                    `json:"id"`
	Description        string                   `json:"description"`
	ClosedBoxQuantity  int                      `json:"closed_box_quantity"`
	ClosedBoxPrice     decimal.Decimal          `json:"closed_box_price"`
	FractionalQuantity int                      `json:"fractional_quantity"`
	FractionalPrice    decimal.Decimal          `json:"fractional_price"`
	IPIApplicable      bool                     `json:"ipi_applicable"`
	StockStatus        enums.ProductStockStatus `json:"stock_status"`
}

func toProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:                 p.ID,
		Code:               p.Code,
		Description:        p.Description,
		StockStatus:        p.StockStatus,
		StockQuantity:      p.StockQuantity,
		ClosedBoxQuantity:  p.ClosedBoxQuantity,
		ClosedBoxPrice:     p.ClosedBoxPrice,
		FractionalQuantity: p.FractionalQuantity,
		FractionalPrice:    p.FractionalPrice,
		IPIApplicable:      p.IPIApplicable,
		Season:             p.Season,
	}
}

func toPricingDTO(p *models.Product) *PricingDTO {
	return &PricingDTO{
		ID:                 p.ID,
		Description:        p.Description,
		ClosedBoxQuantity:  p.ClosedBoxQuantity,
		ClosedBoxPrice:     p.ClosedBoxPrice,
		FractionalQuantity: p.FractionalQuantity,
		FractionalPrice:    p.FractionalPrice,
		IPIApplicable:      p.IPIApplicable,
		StockStatus:        p.StockStatus,
	}
}
