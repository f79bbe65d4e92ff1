package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
)

// AddItemInput is the add-to-order payload after authentication.
type AddItemInput struct {
	// Username owns the draft. Only admins may name a user other than themselves.
	Username       string
	CustomerName   string
	Representative string
	CustomerTaxID  string
	ProductCode    string
	Quantity       int
}

// AddItemResult reports where the item landed.
type AddItemResult struct {
	Message      string          `json:"message"`
	OrderID      int64           `json:"order_id"`
	ItemID       int64           `json:"item_id"`
	OrderCreated bool            `json:"order_created"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
}

// EditItemResult carries the repriced item and the new order total.
type EditItemResult struct {
	Message           string          `json:"message"`
	OrderID           int64           `json:"order_id"`
	ItemID            int64           `json:"item_id"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	IPIApplicable     bool            `json:"ipi_applicable"`
	IPITax            decimal.Decimal `json:"ipi_tax"`
	Total             decimal.Decimal `json:"total"`
	ClosedBoxQuantity int             `json:"closed_box_quantity"`
	ClosedBoxPrice    decimal.Decimal `json:"closed_box_price"`
	FractionalPrice   decimal.Decimal `json:"fractional_price"`
}

// TotalResult is returned by writes whose only visible effect is a new total.
type TotalResult struct {
	Message string          `json:"message"`
	OrderID int64           `json:"order_id"`
	IPITax  decimal.Decimal `json:"ipi_tax"`
	Total   decimal.Decimal `json:"total"`
}

// TransitionResult describes the outcome of a status operation.
type TransitionResult struct {
	Message string            `json:"message"`
	OrderID int64             `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	Status  enums.OrderStatus `json:"status"`
	Changed bool              `json:"changed"`
}

// StatusDTO answers the order status lookup.
type StatusDTO struct {
	OrderID    int64             `json:"order_id"`
	Status     enums.OrderStatus `json:"status"`
	StatusName string            `json:"status_name"`
}

// OrderDTO is an order header.
type OrderDTO struct {
	ID             int64             `json:"id"`
	Username       string            `json:"username"`
	CustomerName   string            `json:"customer_name"`
	Representative string            `json:"representative"`
	CustomerTaxID  string            `json:"customer_tax_id"`
	Status         enums.OrderStatus `json:"status"`
	StatusName     string            `json:"status_name"`
	Total          decimal.Decimal   `json:"total"`
	IPITax         decimal.Decimal   `json:"ipi_tax"`
	Notes          string            `json:"notes"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ItemDTO is one line item.
type ItemDTO struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	ProductCode   string          `json:"product_code"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IPIApplicable bool            `json:"ipi_applicable"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// OrderDetailDTO is an order with its items.
type OrderDetailDTO struct {
	OrderDTO
	Items []ItemDTO `json:"items"`
}

// AdminOrderSummary is one row of the admin listing.
type AdminOrderSummary struct {
	ID                     int64             `json:"id"`
	Username               string            `json:"username"`
	CustomerName           string            `json:"customer_name"`
	Representative         string            `json:"representative"`
	CustomerRepresentative *string           `json:"customer_representative"`
	Status                 enums.OrderStatus `json:"status"`
	StatusName             string            `json:"status_name"`
	Total                  decimal.Decimal   `json:"total"`
	CreatedAt              time.Time         `json:"created_at"`
}

// AdminOrderList is a page of the admin listing.
type AdminOrderList struct {
	Orders     []AdminOrderSummary `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func (r adminOrderRow) summary() AdminOrderSummary {
	return AdminOrderSummary{
		ID:                     r.ID,
		Username:               r.Username,
		CustomerName:           r.CustomerName,
		Representative:         r.Representative,
		CustomerRepresentative: r.CustomerRepresentative,
		Status:                 r.Status,
		StatusName:             r.Status.String(),
		Total:                  r.Total,
		CreatedAt:              r.CreatedAt,
	}
}

func toOrderDTO(o models.Order) OrderDTO {
	return OrderDTO{
		ID:             o.ID,
		Username:       o.Username,
		CustomerName:   o.CustomerName,
		Representative: o.Representative,
		CustomerTaxID:  o.CustomerTaxID,
		Status:         o.Status,
		StatusName:     o.Status.String(),
		Total:          o.Total,
		IPITax:         o.IPITax,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toItemDTOs(items []models.OrderItem, ipiTax decimal.Decimal) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, ItemDTO{
			ID:            item.ID,
			OrderID:       item.OrderID,
			ProductCode:   item.ProductCode,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			IPIApplicable: item.IPIApplicable,
			LineTotal:     LineTotal(item, ipiTax).Round(2),
		})
	}
	return out
}
