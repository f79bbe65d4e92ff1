package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/orderledger-backend/internal/repo"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	"gorm.io/gorm"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Season string
}

// Repository reads catalog rows. The ledger never writes products.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByCode loads the product with the given business code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("code = ?", code).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns listed products ordered by id, optionally for one season.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.DB(ctx).
		Model(&models.Product{}).
		Where("stock_status IN ?", enums.ListedProductStockStatuses)

	if season := strings.TrimSpace(filter.Season); season != "" {
		query = query.Where("season = ?", season)
	}

	var products []models.Product
	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
