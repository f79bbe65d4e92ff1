package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	msgCreated = "customer record created"
	msgUpdated = "customer record updated"
)

// Service manages customer records.
type Service interface {
	Upsert(ctx context.Context, actor pkgAuth.Actor, req UpsertRequest) (*UpsertResult, error)
	CheckComplete(ctx context.Context, username string) (*CompletenessDTO, error)
	Get(ctx context.Context, actor pkgAuth.Actor, id int64) (*CustomerDTO, error)
	GetByUsername(ctx context.Context, actor pkgAuth.Actor, username string) (*CustomerDTO, error)
	Update(ctx context.Context, actor pkgAuth.Actor, id int64, profile Profile) (*CustomerDTO, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, actor pkgAuth.Actor, term string) ([]CustomerDTO, error)
	ListAll(ctx context.Context) ([]CustomerDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the customers service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Upsert updates the record owned by the username, inserting it when no row
// matched. Non-admin actors always write their own record.
func (s *service) Upsert(ctx context.Context, actor pkgAuth.Actor, req UpsertRequest) (*UpsertResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || !actor.IsAdmin() {
		username = actor.Username
	}
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	profile := req.Profile.normalized()
	if profile.CompanyName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_name is required")
	}

	var (
		saved   *models.Customer
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateProfileByUsername(ctx, username, profile)
		if err != nil {
			return mapWriteError(err, "update customer")
		}
		if affected == 0 {
			record := profile.toModel(username)
			if err := repo.Create(ctx, record); err != nil {
				return mapWriteError(err, "create customer")
			}
			created = true
		}
		saved, err = repo.FindByUsername(ctx, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload customer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := msgUpdated
	if created {
		msg = msgCreated
	}
	return &UpsertResult{
		Message:    msg,
		CustomerID: saved.ID,
		Created:    created,
		Customer:   FromModel(saved),
	}, nil
}

func (s *service) CheckComplete(ctx context.Context, username string) (*CompletenessDTO, error) {
	record, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapReadError(err)
	}
	return &CompletenessDTO{CadastroFilled: record.IsComplete(), CustomerID: record.ID}, nil
}

func (s *service) Get(ctx context.Context, actor pkgAuth.Actor, id int64) (*CustomerDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}
	if !actor.CanAccess(record.Username, record.Representative) {
		return nil, errNotFound
	}
	return FromModel(record), nil
}

func (s *service) GetByUsername(ctx context.Context, actor pkgAuth.Actor, username string) (*CustomerDTO, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	record, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapReadError(err)
	}
	if !actor.CanAccess(record.Username, record.Representative) {
		return nil, errNotFound
	}
	return FromModel(record), nil
}

func (s *service) Update(ctx context.Context, actor pkgAuth.Actor, id int64, profile Profile) (*CustomerDTO, error) {
	profile = profile.normalized()
	if profile.CompanyName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_name is required")
	}

	var saved *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapReadError(err)
		}
		if !actor.CanAccess(record.Username, record.Representative) {
			return errNotFound
		}
		if _, err := repo.UpdateProfileByID(ctx, id, profile); err != nil {
			return mapWriteError(err, "update customer")
		}
		saved, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload customer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(saved), nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete customer")
	}
	if affected == 0 {
		return errNotFound
	}
	return nil
}

func (s *service) Search(ctx context.Context, actor pkgAuth.Actor, term string) ([]CustomerDTO, error) {
	filter := SearchFilter{Term: term}
	if !actor.IsAdmin() {
		filter.Visible = actor.Username
	}
	rows, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search customers")
	}
	return fromModels(rows), nil
}

func (s *service) ListAll(ctx context.Context) ([]CustomerDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	return fromModels(rows), nil
}

var errNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "customer record not found")

func mapReadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
}

func mapWriteError(err error, step string) error {
	switch {
	case db.IsUniqueViolation(err, "customers_tax_id_key"), db.IsUniqueViolation(err, "customers.tax_id"):
		return pkgerrors.New(pkgerrors.CodeConflict, "tax id already registered to another customer")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.New(pkgerrors.CodeConflict, "customer record already exists for this username")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, step)
	}
}
