package customers

import (
	"context"
	"strings"

	"github.com/angelmondragon/orderledger-backend/internal/repo"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists customer records.
type Repository struct {
	repo.Base
}

// NewRepository binds a customers repository to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByID loads one record.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByUsername loads the record keyed by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).Where("username = ?", username).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateProfileByUsername overwrites the profile columns of the record owned
// by username and reports how many rows matched.
func (r *Repository) UpdateProfileByUsername(ctx context.Context, username string, profile Profile) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Customer{}).
		Where("username = ?", username).
		Updates(profile.columns())
	return res.RowsAffected, res.Error
}

// UpdateProfileByID overwrites the profile columns of one record.
func (r *Repository) UpdateProfileByID(ctx context.Context, id int64, profile Profile) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(profile.columns())
	return res.RowsAffected, res.Error
}

// Create inserts a new record.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Create(customer).Error
}

// Delete removes a record and reports how many rows were removed.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.DB(ctx).Delete(&models.Customer{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// SearchFilter narrows a customer listing.
type SearchFilter struct {
	// Visible limits rows to those owned by or assigned to this username.
	// Empty means every row.
	Visible string
	Term    string
}

// Search lists records matching the filter ordered by company name.
func (r *Repository) Search(ctx context.Context, filter SearchFilter) ([]models.Customer, error) {
	query := r.DB(ctx).Model(&models.Customer{})
	if filter.Visible != "" {
		query = query.Where("(username = ? OR representative = ?)", filter.Visible, filter.Visible)
	}
	if term := strings.TrimSpace(filter.Term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(company_name) LIKE ? OR LOWER(tax_id) LIKE ?)", like, like)
	}

	var rows []models.Customer
	if err := query.Order("company_name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every record ordered by username.
func (r *Repository) ListAll(ctx context.Context) ([]models.Customer, error) {
	var rows []models.Customer
	if err := r.DB(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
