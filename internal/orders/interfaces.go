package orders

import (
	"context"

	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrder(ctx context.Context, id int64) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, id int64) (*models.Order, error)
	FindDraftForUpdate(ctx context.Context, username string) (*models.Order, error)
	CountDrafts(ctx context.Context, username string, excludeID int64) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, id int64, updates map[string]any) error

	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	FindItem(ctx context.Context, itemID int64) (*models.OrderItem, error)
	FindItemByProduct(ctx context.Context, orderID int64, productCode string) (*models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateItem(ctx context.Context, itemID int64, updates map[string]any) error
	DeleteItem(ctx context.Context, orderID, itemID int64) (int64, error)

	Archive(ctx context.Context, archived *models.ArchivedOrder) error

	ListVisible(ctx context.Context, username string, includeRepresented bool) ([]models.Order, error)
	ListAll(ctx context.Context, params pagination.Params) (*AdminOrderList, error)
}

// ProductFinder resolves catalog rows by code.
type ProductFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Product, error)
}

// ProductSource binds product reads to the caller's transaction.
type ProductSource func(tx *gorm.DB) ProductFinder

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderMetrics interface {
	IncTransition(from, to string)
	IncItemMutation(op string)
	IncArchived()
	IncConflict(reason string)
}
