package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderledger-backend/pkg/enums"
)

// Order is a customer order. Total is derived from Items and cached here.
type Order struct {
	ID             int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Username       string            `gorm:"column:username;not null"`
	CustomerName   string            `gorm:"column:customer_name;not null"`
	Representative string            `gorm:"column:representative;not null;default:''"`
	CustomerTaxID  string            `gorm:"column:customer_tax_id;not null;default:''"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:0"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	IPITax         decimal.Decimal   `gorm:"column:ipi_tax;type:numeric(6,4);not null;default:0"`
	Notes          string            `gorm:"column:notes;not null;default:''"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one product line of an order. Description, price and the IPI
// flag are snapshots taken from the product.
type OrderItem struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       int64           `gorm:"column:order_id;not null"`
	ProductCode   string          `gorm:"column:product_code;not null"`
	Description   string          `gorm:"column:description;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	IPIApplicable bool            `gorm:"column:ipi_applicable;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ArchivedOrder is the backup copy written when an order is deleted.
type ArchivedOrder struct {
	ID             int64             `gorm:"column:id;primaryKey;autoIncrement:false"`
	Username       string            `gorm:"column:username;not null"`
	CustomerName   string            `gorm:"column:customer_name;not null"`
	Representative string            `gorm:"column:representative;not null;default:''"`
	CustomerTaxID  string            `gorm:"column:customer_tax_id;not null;default:''"`
	Status         enums.OrderStatus `gorm:"column:status;not null"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	IPITax         decimal.Decimal   `gorm:"column:ipi_tax;type:numeric(6,4);not null"`
	Notes          string            `gorm:"column:notes;not null;default:''"`
	ArchivedBy     string            `gorm:"column:archived_by;not null;default:''"`
	CreatedAt      time.Time         `gorm:"column:created_at;not null"`
	ArchivedAt     time.Time         `gorm:"column:archived_at;not null"`
}

// ArchiveOf copies every order column into a backup row.
func ArchiveOf(order Order, by string, at time.Time) ArchivedOrder {
	return ArchivedOrder{
		ID:             order.ID,
		Username:       order.Username,
		CustomerName:   order.CustomerName,
		Representative: order.Representative,
		CustomerTaxID:  order.CustomerTaxID,
		Status:         order.Status,
		Total:          order.Total,
		IPITax:         order.IPITax,
		Notes:          order.Notes,
		ArchivedBy:     by,
		CreatedAt:      order.CreatedAt,
		ArchivedAt:     at,
	}
}
