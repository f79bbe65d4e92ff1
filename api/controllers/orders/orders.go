package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderledger-backend/api/middleware"
	"github.com/angelmondragon/orderledger-backend/api/responses"
	"github.com/angelmondragon/orderledger-backend/api/validators"
	internalorders "github.com/angelmondragon/orderledger-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
	"github.com/angelmondragon/orderledger-backend/pkg/pagination"
)

type addToOrderRequest struct {
	Username       string `json:"username"`
	CustomerName   string `json:"customer_name" validate:"required"`
	Representative string `json:"representative"`
	CustomerTaxID  string `json:"customer_tax_id"`
	ProductCode    string `json:"product_code" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
}

type editItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type orderRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

type deleteItemRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
	ItemID  int64 `json:"item_id" validate:"required,gt=0"`
}

type notesRequest struct {
	OrderID int64   `json:"order_id" validate:"required,gt=0"`
	Notes   *string `json:"notes"`
}

type saveNotesRequest struct {
	OrderID int64  `json:"order_id" validate:"required,gt=0"`
	Notes   string `json:"notes" validate:"max=4000"`
}

type updateIPIRequest struct {
	OrderID int64            `json:"order_id" validate:"required,gt=0"`
	IPITax  *decimal.Decimal `json:"ipi_tax"`
}

type canRevertRequest struct {
	Username string `json:"username"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
}

// AddToOrder appends a product to the caller's draft.
func AddToOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return addToOrder(svc, logg, false)
}

// AddToOrderAdmin appends a product to the draft of the username in the body.
func AddToOrderAdmin(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return addToOrder(svc, logg, true)
}

func addToOrder(svc internalorders.Service, logg *logger.Logger, targetUser bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body addToOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		input := internalorders.AddItemInput{
			Username:       actor.Username,
			CustomerName:   body.CustomerName,
			Representative: body.Representative,
			CustomerTaxID:  body.CustomerTaxID,
			ProductCode:    body.ProductCode,
			Quantity:       body.Quantity,
		}
		if targetUser {
			username := strings.TrimSpace(body.Username)
			if username == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "username is required"))
				return
			}
			input.Username = username
		}

		result, err := svc.AddItem(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.OrderCreated {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// EditItem changes the quantity of one line item and reprices it.
func EditItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		itemID, err := validators.ParsePathID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body editItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.EditItemQuantity(r.Context(), middleware.ActorFromContext(r.Context()), itemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeleteItem removes one line item and recomputes the order total.
func DeleteItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body deleteItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteItem(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID, body.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeleteOrder archives an order and removes it from the live tables.
func DeleteOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body orderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Archive(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":  "order archived and deleted",
			"order_id": body.OrderID,
		})
	}
}

// SaveNotes replaces the notes of an order without changing its status.
func SaveNotes(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body saveNotesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SaveNotes(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID, body.Notes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":  "notes saved",
			"order_id": body.OrderID,
		})
	}
}

// Submit moves a draft to submitted.
func Submit(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body notesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID, body.Notes)
		writeTransition(w, r, logg, result, err)
	}
}

// Finish closes an order, or only saves notes when it is already finished.
func Finish(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body notesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Finish(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID, body.Notes)
		writeTransition(w, r, logg, result, err)
	}
}

// Receive marks a finished order as received.
func Receive(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, internalorders.Service.Receive)
}

// RevertBasic moves a submitted order back to draft.
func RevertBasic(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, internalorders.Service.RevertToDraft)
}

// RevertGuarded moves a finished order back to submitted.
func RevertGuarded(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, internalorders.Service.RevertFinished)
}

type transitionFunc func(internalorders.Service, context.Context, pkgAuth.Actor, int64) (*internalorders.TransitionResult, error)

func orderTransition(svc internalorders.Service, logg *logger.Logger, apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body orderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := apply(svc, r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID)
		writeTransition(w, r, logg, result, err)
	}
}

func writeTransition(w http.ResponseWriter, r *http.Request, logg *logger.Logger, result *internalorders.TransitionResult, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

// CheckOtherOpened reports whether a user may revert an order to draft,
// which holds only while they have no open draft.
func CheckOtherOpened(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body canRevertRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canRevert, err := svc.CanRevert(r.Context(), middleware.ActorFromContext(r.Context()), strings.TrimSpace(body.Username))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"can_revert": canRevert})
	}
}

// OrderStatus returns the status of one order.
func OrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body orderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Status(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateIPI sets the tax rate of a draft and recomputes its total.
func UpdateIPI(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body updateIPIRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.IPITax == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ipi_tax is required"))
			return
		}

		result, err := svc.UpdateIPI(r.Context(), middleware.ActorFromContext(r.Context()), body.OrderID, *body.IPITax)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// List returns the caller's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		result, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListAdmin returns a cursor page of every order.
func ListAdmin(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Details returns one order with its line items.
func Details(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Details(r.Context(), middleware.ActorFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Items returns the line items of one order.
func Items(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Items(r.Context(), middleware.ActorFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
