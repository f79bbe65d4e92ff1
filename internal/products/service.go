package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes the read-only catalog operations.
type Service interface {
	ListProducts(ctx context.Context, season string) ([]ProductDTO, error)
	GetPricing(ctx context.Context, code string) (*PricingDTO, error)
}

type catalogRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

type service struct {
	repo catalogRepository
}

// NewService builds a catalog service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, season string) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, ListFilter{Season: season})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProductDTO(row))
	}
	return out, nil
}

func (s *service) GetPricing(ctx context.Context, code string) (*PricingDTO, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError(code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return toPricingDTO(p), nil
}

// NotFoundError names the missing product code.
func NotFoundError(code string) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "no product found with code %s", code)
}
