package orders

import (
	"context"
	"strings"

	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
)

// transition describes one status operation: the statuses it accepts and
// the status it writes.
type transition struct {
	name string
	from []enums.OrderStatus
	to   enums.OrderStatus
}

var (
	submitTransition = transition{
		name: "submit",
		from: []enums.OrderStatus{enums.OrderStatusDraft, enums.OrderStatusFinished},
		to:   enums.OrderStatusSubmitted,
	}
	finishTransition = transition{
		name: "finish",
		from: []enums.OrderStatus{enums.OrderStatusDraft, enums.OrderStatusSubmitted},
		to:   enums.OrderStatusFinished,
	}
	receiveTransition = transition{
		name: "receive",
		from: []enums.OrderStatus{enums.OrderStatusFinished},
		to:   enums.OrderStatusReceived,
	}
	revertTransition = transition{
		name: "revert",
		from: []enums.OrderStatus{enums.OrderStatusSubmitted},
		to:   enums.OrderStatusDraft,
	}
	revertFinishedTransition = transition{
		name: "revert finished",
		from: []enums.OrderStatus{enums.OrderStatusFinished},
		to:   enums.OrderStatusSubmitted,
	}
)

func (t transition) allows(from enums.OrderStatus) bool {
	for _, candidate := range t.from {
		if candidate == from {
			return from.CanTransitionTo(t.to)
		}
	}
	return false
}

func (t transition) reject(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s order %d while it is %s", t.name, order.ID, order.Status).
		WithDetails(map[string]any{"from": order.Status.String(), "to": t.to.String()})
}

// Submit moves a draft, or a finished order being reopened, to submitted.
func (s *service) Submit(ctx context.Context, actor pkgAuth.Actor, orderID int64, notes *string) (*TransitionResult, error) {
	return s.applyTransition(ctx, actor, orderID, submitTransition, notes, nil)
}

// Finish closes a draft or submitted order. Finishing an order that is
// already finished only stores the notes.
func (s *service) Finish(ctx context.Context, actor pkgAuth.Actor, orderID int64, notes *string) (*TransitionResult, error) {
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusFinished {
			result, err = s.transitionLocked(ctx, repo, order, finishTransition, notes, nil)
			return err
		}
		if notes != nil {
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"notes": *notes}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save notes")
			}
		}
		result = &TransitionResult{
			Message: "order already finished, notes saved",
			OrderID: order.ID,
			From:    order.Status,
			Status:  order.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(result)
	return result, nil
}

// Receive marks a finished order as delivered. Received is terminal.
func (s *service) Receive(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*TransitionResult, error) {
	return s.applyTransition(ctx, actor, orderID, receiveTransition, nil, nil)
}

// RevertToDraft reopens a submitted order. The owner must not hold another
// draft at the same time.
func (s *service) RevertToDraft(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*TransitionResult, error) {
	return s.applyTransition(ctx, actor, orderID, revertTransition, nil, func(ctx context.Context, repo Repository, order *models.Order) error {
		drafts, err := repo.CountDrafts(ctx, order.Username, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count drafts")
		}
		if drafts > 0 {
			s.metrics.IncConflict("draft_exists")
			return pkgerrors.Newf(pkgerrors.CodeConflict, "user %s already has an open draft order", order.Username).
				WithDetails(map[string]any{"username": order.Username})
		}
		return nil
	})
}

// RevertFinished walks a finished order back to submitted. Orders that were
// never finished need no action.
func (s *service) RevertFinished(ctx context.Context, actor pkgAuth.Actor, orderID int64) (*TransitionResult, error) {
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case enums.OrderStatusDraft, enums.OrderStatusSubmitted:
			result = &TransitionResult{
				Message: "no action needed",
				OrderID: order.ID,
				From:    order.Status,
				Status:  order.Status,
			}
			return nil
		}
		result, err = s.transitionLocked(ctx, repo, order, revertFinishedTransition, nil, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(result)
	return result, nil
}

// CanRevert reports whether the username holds no draft, which is the
// precondition for reopening one of its submitted orders.
func (s *service) CanRevert(ctx context.Context, actor pkgAuth.Actor, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || !actor.IsAdmin() {
		username = actor.Username
	}
	if username == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	drafts, err := s.repo.CountDrafts(ctx, username, 0)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count drafts")
	}
	return drafts == 0, nil
}

type transitionCheck func(ctx context.Context, repo Repository, order *models.Order) error

func (s *service) applyTransition(ctx context.Context, actor pkgAuth.Actor, orderID int64, t transition, notes *string, check transitionCheck) (*TransitionResult, error) {
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		result, err = s.transitionLocked(ctx, repo, order, t, notes, check)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(result)
	return result, nil
}

// transitionLocked validates and writes a status change on an order already
// locked by the caller's transaction.
func (s *service) transitionLocked(ctx context.Context, repo Repository, order *models.Order, t transition, notes *string, check transitionCheck) (*TransitionResult, error) {
	if !t.allows(order.Status) {
		s.metrics.IncConflict("invalid_transition")
		return nil, t.reject(order)
	}
	if check != nil {
		if err := check(ctx, repo, order); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{"status": t.to}
	if notes != nil {
		updates["notes"] = *notes
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		if t.to == enums.OrderStatusDraft && db.IsUniqueViolation(err, "") {
			s.metrics.IncConflict("draft_exists")
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "user %s already has an open draft order", order.Username).
				WithDetails(map[string]any{"username": order.Username})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	return &TransitionResult{
		Message: "order " + t.to.String(),
		OrderID: order.ID,
		From:    order.Status,
		Status:  t.to,
		Changed: true,
	}, nil
}

func (s *service) recordTransition(result *TransitionResult) {
	if result == nil || !result.Changed {
		return
	}
	s.metrics.IncTransition(result.From.String(), result.Status.String())
}
