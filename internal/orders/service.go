package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
	"github.com/angelmondragon/orderledger-backend/pkg/pagination"
)

// Service exposes the order ledger operations.
type Service interface {
	AddItem(ctx context.Context, actor pkgAuth.Actor, input AddItemInput) (*AddItemResult, error)
	EditItemQuantity(ctx context.Context, actor pkgAuth.Actor, itemID int64, quantity int) (*EditItemResult, error)
	DeleteItem(ctx context.Context, actor pkgAuth.Actor, orderID, itemID int64) (*TotalResult, error)
	UpdateIPI(ctx context.Context, actor pkgAuth.Actor, orderID int64, rate decimal.Decimal) (*TotalResult, error)
	SaveNotes(ctx context.Context, actor pkgAuth.Actor, orderID int64, notes string) error
	Archive(ctx context.Context, actor pkgAuth.Actor, orderID int64) error

	Submit(ctx context.Context, actor pkgAuth.Actor, orderID int64, notes *string) (*TransitionResult, error)
	Finish(ctx context.Context, actor pkgAuth.Actor, orderID int64, notes *string) (*TransitionResult, error)
	Receive(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*TransitionResult, error)
	RevertToDraft(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*TransitionResult, error)
	RevertFinished(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*TransitionResult, error)
	CanRevert(ctx context.Context, actor pkgAuth.Actor, username string) (bool, error)

	Status(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*StatusDTO, error)
	List(ctx context.Context, actor pkgAuth.Actor) ([]OrderDTO, error)
	ListAll(ctx context.Context, params pagination.Params) (*AdminOrderList, error)
	Details(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*OrderDetailDTO, error)
	Items(ctx context.Context, actor pkgAuth.Actor, orderID int64) ([]ItemDTO, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Products ProductSource
	Metrics  orderMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	products ProductSource
	metrics  orderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	s := &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Clock,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

var (
	errOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	errItemNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
)

// AddItem resolves the caller's draft, creating it when absent, and appends
// one product line priced from the catalog.
func (s *service) AddItem(ctx context.Context, actor pkgAuth.Actor, input AddItemInput) (*AddItemResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || !actor.IsAdmin() {
		username = actor.Username
	}
	customerName := strings.TrimSpace(input.CustomerName)
	code := strings.TrimSpace(input.ProductCode)
	switch {
	case username == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	case customerName == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_name is required")
	case code == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_code is required")
	case input.Quantity <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	result := &AddItemResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := s.products(tx).FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "no product found with code %s", code)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		order, created, err := s.resolveDraft(ctx, repo, username, customerName, input)
		if err != nil {
			return err
		}
		result.OrderID = order.ID
		result.OrderCreated = created

		existing, err := repo.FindItemByProduct(ctx, order.ID, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check duplicate item")
		}
		if existing != nil {
			s.metrics.IncConflict("duplicate_item")
			return duplicateItemError(code, order.ID)
		}

		item := &models.OrderItem{
			OrderID:       order.ID,
			ProductCode:   product.Code,
			Description:   product.Description,
			Quantity:      input.Quantity,
			UnitPrice:     product.UnitPriceFor(input.Quantity),
			IPIApplicable: product.IPIApplicable,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				s.metrics.IncConflict("duplicate_item")
				return duplicateItemError(code, order.ID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order item")
		}
		result.ItemID = item.ID
		result.UnitPrice = item.UnitPrice

		result.Total, err = s.recompute(ctx, repo, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncItemMutation("add")
	result.Message = "product added to order"
	return result, nil
}

// resolveDraft returns the username's draft order, creating one when none
// exists. A draft held for another customer blocks the add.
func (s *service) resolveDraft(ctx context.Context, repo Repository, username, customerName string, input AddItemInput) (*models.Order, bool, error) {
	draft, err := repo.FindDraftForUpdate(ctx, username)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft order")
	}
	if draft != nil {
		if draft.CustomerName != customerName {
			s.metrics.IncConflict("draft_customer_mismatch")
			return nil, false, pkgerrors.Newf(pkgerrors.CodeConflict,
				"finish the open order for customer %s and try again", draft.CustomerName).
				WithDetails(map[string]any{"order_id": draft.ID, "customer_name": draft.CustomerName})
		}
		return draft, false, nil
	}

	order := &models.Order{
		Username:       username,
		CustomerName:   customerName,
		Representative: strings.TrimSpace(input.Representative),
		CustomerTaxID:  strings.TrimSpace(input.CustomerTaxID),
		Status:         enums.OrderStatusDraft,
		Total:          decimal.Zero,
		IPITax:         decimal.Zero,
	}
	if err := repo.CreateOrder(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			s.metrics.IncConflict("concurrent_draft")
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "another draft order was opened for this user, retry the request")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create draft order")
	}
	return order, true, nil
}

// EditItemQuantity changes a line's quantity and re-selects its tier price.
func (s *service) EditItemQuantity(ctx context.Context, actor pkgAuth.Actor, itemID int64, quantity int) (*EditItemResult, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	result := &EditItemResult{ItemID: itemID, Quantity: quantity}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errItemNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order item")
		}
		order, err := s.lockOrder(ctx, repo, actor, item.OrderID)
		if err != nil {
			return err
		}
		if err := ensureEditable(order); err != nil {
			return err
		}

		product, err := s.products(tx).FindByCode(ctx, item.ProductCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s no longer exists", item.ProductCode)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		price := product.UnitPriceFor(quantity)
		if err := repo.UpdateItem(ctx, item.ID, map[string]any{"quantity": quantity, "unit_price": price}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order item")
		}

		total, err := s.recompute(ctx, repo, order)
		if err != nil {
			return err
		}

		result.OrderID = order.ID
		result.UnitPrice = price
		result.IPIApplicable = item.IPIApplicable
		result.IPITax = order.IPITax
		result.Total = total
		result.ClosedBoxQuantity = product.ClosedBoxQuantity
		result.ClosedBoxPrice = product.ClosedBoxPrice
		result.FractionalPrice = product.FractionalPrice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncItemMutation("edit")
	result.Message = "quantity updated"
	return result, nil
}

// DeleteItem removes one line and recomputes the order total.
func (s *service) DeleteItem(ctx context.Context, actor pkgAuth.Actor, orderID, itemID int64) (*TotalResult, error) {
	result := &TotalResult{OrderID: orderID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if err := ensureEditable(order); err != nil {
			return err
		}

		removed, err := repo.DeleteItem(ctx, orderID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order item")
		}
		if removed == 0 {
			return errItemNotFound
		}

		result.IPITax = order.IPITax
		result.Total, err = s.recompute(ctx, repo, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncItemMutation("delete")
	result.Message = "item deleted"
	return result, nil
}

// UpdateIPI sets the order's IPI rate, a fraction such as 0.13, and
// recomputes the total. Only drafts accept a new rate.
func (s *service) UpdateIPI(ctx context.Context, actor pkgAuth.Actor, orderID int64, rate decimal.Decimal) (*TotalResult, error) {
	if rate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ipi_tax must not be negative")
	}
	if rate.GreaterThan(one) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ipi_tax is a fraction between 0 and 1")
	}

	result := &TotalResult{OrderID: orderID, IPITax: rate}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusDraft {
			s.metrics.IncConflict("ipi_not_draft")
			return pkgerrors.Newf(pkgerrors.CodeConflict, "order %d is %s and its IPI can no longer change", order.ID, order.Status).
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"ipi_tax": rate}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update ipi")
		}
		order.IPITax = rate

		result.Total, err = s.recompute(ctx, repo, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Message = fmt.Sprintf("IPI updated to %s%% and total updated to %s",
		rate.Mul(decimal.NewFromInt(100)).String(), result.Total.StringFixed(2))
	return result, nil
}

// SaveNotes overwrites the free-text notes of an order in any status.
func (s *service) SaveNotes(ctx context.Context, actor pkgAuth.Actor, orderID int64, notes string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"notes": notes}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save notes")
		}
		return nil
	})
}

// Archive copies the order into the archive table and deletes it with its
// items in one transaction.
func (s *service) Archive(ctx context.Context, actor pkgAuth.Actor, orderID int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		archived := models.ArchiveOf(*order, actor.Username, s.now().UTC())
		if err := repo.Archive(ctx, &archived); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errOrderNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncArchived()
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUsername(ctx, actor.Username), orderID)
		s.logg.Info(logCtx, "order archived")
	}
	return nil
}

func (s *service) Status(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*StatusDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, actor, orderID)
	if err != nil {
		return nil, err
	}
	return &StatusDTO{OrderID: order.ID, Status: order.Status, StatusName: order.Status.String()}, nil
}

func (s *service) List(ctx context.Context, actor pkgAuth.Actor) ([]OrderDTO, error) {
	if actor.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListVisible(ctx, actor.Username, actor.Role == enums.UserRoleRepresentative)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOrderDTO(row))
	}
	return out, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*AdminOrderList, error) {
	if _, _, err := params.After(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

func (s *service) Details(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*OrderDetailDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, actor, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order items")
	}
	return &OrderDetailDTO{
		OrderDTO: toOrderDTO(*order),
		Items:    toItemDTOs(items, order.IPITax),
	}, nil
}

func (s *service) Items(ctx context.Context, actor pkgAuth.Actor, orderID int64) ([]ItemDTO, error) {
	detail, err := s.Details(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return detail.Items, nil
}

// recompute reloads the order's items, stores the derived total on the order
// and returns it.
func (s *service) recompute(ctx context.Context, repo Repository, order *models.Order) (decimal.Decimal, error) {
	items, err := repo.ListItems(ctx, order.ID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order items")
	}
	total := ComputeTotal(items, order.IPITax)
	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"total": total}); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order total")
	}
	order.Total = total
	return total, nil
}

// lockOrder loads the order under a row lock and hides orders the actor
// cannot access.
func (s *service) lockOrder(ctx context.Context, repo Repository, actor pkgAuth.Actor, orderID int64) (*models.Order, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	return s.visible(actor, order, err)
}

func (s *service) loadOrder(ctx context.Context, repo Repository, actor pkgAuth.Actor, orderID int64) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	return s.visible(actor, order, err)
}

func (s *service) visible(actor pkgAuth.Actor, order *models.Order, err error) (*models.Order, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !actor.CanAccess(order.Username, order.Representative) {
		return nil, errOrderNotFound
	}
	return order, nil
}

// ensureEditable rejects item changes once an order is finished.
func ensureEditable(order *models.Order) error {
	switch order.Status {
	case enums.OrderStatusDraft, enums.OrderStatusSubmitted:
		return nil
	default:
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order %d is %s and its items can no longer change", order.ID, order.Status).
			WithDetails(map[string]any{"status": order.Status.String()})
	}
}

func duplicateItemError(code string, orderID int64) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "product %s is already in this order", code).
		WithDetails(map[string]any{"order_id": orderID, "product_code": code})
}

type noopMetrics struct{}

func (noopMetrics) IncTransition(string, string) {}
func (noopMetrics) IncItemMutation(string)       {}
func (noopMetrics) IncArchived()                 {}
func (noopMetrics) IncConflict(string)           {}
