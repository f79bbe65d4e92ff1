package users

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderledger-backend/internal/repo"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
)

// Repository persists login credentials.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByUsername returns gorm.ErrRecordNotFound for unknown usernames.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether username is already registered.
func (r *Repository) Exists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.DB(ctx).Model(&models.User{}).Where("username = ?", username).Limit(1).Count(&n).Error
	return n > 0, err
}

// RecordLogin stamps last_login_at and, when rehash is non-empty, swaps the
// stored password hash in the same statement.
func (r *Repository) RecordLogin(ctx context.Context, id int64, at time.Time, rehash string) error {
	cols := map[string]any{"last_login_at": at}
	if strings.TrimSpace(rehash) != "" {
		cols["password_hash"] = rehash
	}
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(cols).Error
}
