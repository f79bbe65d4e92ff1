package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderledger-backend/internal/repo"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	"github.com/angelmondragon/orderledger-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.ForUpdate(ctx).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDraftForUpdate locks the username's draft. A nil order with a nil error
// means no draft exists.
func (r *repository) FindDraftForUpdate(ctx context.Context, username string) (*models.Order, error) {
	var order models.Order
	err := r.ForUpdate(ctx).
		Where("username = ? AND status = ?", username, enums.OrderStatusDraft).
		First(&order).Error
	if repo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CountDrafts(ctx context.Context, username string, excludeID int64) (int64, error) {
	var count int64
	query := r.DB(ctx).
		Model(&models.Order{}).
		Where("username = ? AND status = ?", username, enums.OrderStatusDraft)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) UpdateOrder(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindItem(ctx context.Context, itemID int64) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.DB(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByProduct returns nil without error when the product is not in the order.
func (r *repository) FindItemByProduct(ctx context.Context, orderID int64, productCode string) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.DB(ctx).
		Where("order_id = ? AND product_code = ?", orderID, productCode).
		First(&item).Error
	if repo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB(ctx).Create(item).Error
}

func (r *repository) UpdateItem(ctx context.Context, itemID int64, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repository) DeleteItem(ctx context.Context, orderID, itemID int64) (int64, error) {
	res := r.DB(ctx).
		Where("order_id = ? AND id = ?", orderID, itemID).
		Delete(&models.OrderItem{})
	return res.RowsAffected, res.Error
}

// Archive copies the order into archived_orders and removes it with its
// items. Callers run it inside a transaction.
func (r *repository) Archive(ctx context.Context, archived *models.ArchivedOrder) error {
	conn := r.DB(ctx)
	if err := conn.Create(archived).Error; err != nil {
		return fmt.Errorf("insert archive row: %w", err)
	}
	if err := conn.Where("order_id = ?", archived.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	res := conn.Where("id = ?", archived.ID).Delete(&models.Order{})
	if res.Error != nil {
		return fmt.Errorf("delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListVisible returns the user's orders newest first. Representatives also
// see orders assigned to them.
func (r *repository) ListVisible(ctx context.Context, username string, includeRepresented bool) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{})
	if includeRepresented {
		query = query.Where("username = ? OR representative = ?", username, username)
	} else {
		query = query.Where("username = ?", username)
	}
	var orders []models.Order
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// adminOrderRow is one row of the admin listing joined with the customer record.
type adminOrderRow struct {
	ID                     int64             `gorm:"column:id"`
	Username               string            `gorm:"column:username"`
	CustomerName           string            `gorm:"column:customer_name"`
	Representative         string            `gorm:"column:representative"`
	CustomerRepresentative *string           `gorm:"column:customer_representative"`
	Status                 enums.OrderStatus `gorm:"column:status"`
	Total                  decimal.Decimal   `gorm:"column:total"`
	CreatedAt              time.Time         `gorm:"column:created_at"`
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params) (*AdminOrderList, error) {
	after, paged, err := params.After()
	if err != nil {
		return nil, err
	}
	size := params.Size()

	query := r.DB(ctx).
		Table("orders AS o").
		Select(`o.id, o.username, o.customer_name, o.representative,
			c.representative AS customer_representative,
			o.status, o.total, o.created_at`).
		Joins("LEFT JOIN customers c ON c.username = o.username")
	if paged {
		query = query.Where("o.id < ?", after)
	}

	var rows []adminOrderRow
	if err := query.Order("o.id DESC").Limit(size + 1).Scan(&rows).Error; err != nil {
		return nil, err
	}

	rows, next := pagination.Trim(rows, size, func(row adminOrderRow) int64 { return row.ID })
	list := &AdminOrderList{Orders: make([]AdminOrderSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Orders = append(list.Orders, row.summary())
	}
	return list, nil
}
