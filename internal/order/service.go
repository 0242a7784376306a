package order

import (
	"context"
	"fmt"

	"ridemods-be/internal/logger"
	"ridemods-be/internal/uow"
	"ridemods-be/internal/utils"
	"ridemods-be/internal/wallet"

	"go.uber.org/zap"
)

type Service interface {
	// UpdateStatus moves the order through the transition table. When a
	// paid order reaches cancelled or returned, the wallet refund is
	// issued inside the same unit of work as the status flip.
	UpdateStatus(ctx context.Context, orderID uint, target OrderStatus, comment *string) (*Order, error)

	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, page, size int) ([]Order, error)
}

type service struct {
	repo    Repository
	wallets wallet.Repository
	runner  uow.Runner
}

func NewService(repo Repository, wallets wallet.Repository, runner uow.Runner) Service {
	return &service{repo: repo, wallets: wallets, runner: runner}
}

// customerTransitions are the only moves a non-admin may make, and only
// on their own order.
var customerTransitions = map[OrderStatus]OrderStatus{
	StatusPending:   StatusCancelled,
	StatusDelivered: StatusReturnRequested,
}

func (s *service) UpdateStatus(ctx context.Context, orderID uint, target OrderStatus, comment *string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.Uint("order_id", orderID),
		zap.String("target", string(target)),
	)

	if !target.Valid() {
		return nil, &TransitionError{To: target}
	}

	callerID, _ := utils.GetUserIDFromContext(ctx)
	actor := utils.GetUserEmailFromContext(ctx)
	if actor == "" {
		actor = "system"
	}

	err := s.runner.Run(ctx, func(scope *uow.Scope) error {
		o, err := s.repo.GetSummary(ctx, scope.Exec(), orderID)
		if err != nil {
			return err
		}

		if !utils.IsAdmin(ctx) {
			if o.UserID != callerID {
				return ErrUnauthorized
			}
			if customerTransitions[o.Status] != target {
				return ErrUnauthorized
			}
		}

		if err := CheckTransition(o.Status, target); err != nil {
			return err
		}

		if err := s.repo.AppendStatus(ctx, scope.Exec(), orderID, o.Status, target, actor, comment); err != nil {
			return err
		}
		scope.Done("status_update")

		if (target == StatusCancelled || target == StatusReturned) && o.IsPaid {
			if _, err := s.wallets.GetOrCreate(ctx, scope.Exec(), o.UserID); err != nil {
				return err
			}
			description := fmt.Sprintf("refund for order #%d (%s)", orderID, target)
			if _, err := s.wallets.Refund(ctx, scope.Exec(), o.UserID, o.Total, description, &orderID); err != nil {
				return err
			}
			scope.Done("wallet_refund")
		}

		return nil
	})
	if err != nil {
		log.Error("status update failed", zap.Error(err))
		return nil, err
	}

	log.Info("order status updated")
	return s.repo.GetDetail(ctx, orderID)
}

func (s *service) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	o, err := s.repo.GetDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	callerID, _ := utils.GetUserIDFromContext(ctx)
	if !utils.IsAdmin(ctx) && o.UserID != callerID {
		return nil, ErrUnauthorized
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, page, size int) ([]Order, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	var userID *uint
	if !utils.IsAdmin(ctx) {
		id, ok := utils.GetUserIDFromContext(ctx)
		if !ok {
			return nil, ErrUnauthorized
		}
		userID = &id
	}

	return s.repo.Fetch(ctx, userID, filter, sort, size, (page-1)*size)
}
