package wallet

import (
	"context"

	"ridemods-be/internal/logger"
	"ridemods-be/internal/uow"

	"go.uber.org/zap"
)

type Service interface {
	GetOrCreate(ctx context.Context, userID uint) (*Wallet, error)

	// Credit is the only standalone mutation: admin goodwill adjustments.
	// Debits and refunds always ride inside a checkout or order-status
	// unit of work and go through the repository directly.
	Credit(ctx context.Context, userID uint, amount float64, description string) (*Transaction, error)

	History(ctx context.Context, userID uint, page, size int) ([]Transaction, error)
}

type service struct {
	repo   Repository
	runner uow.Runner
}

func NewService(repo Repository, runner uow.Runner) Service {
	return &service{repo: repo, runner: runner}
}

func (s *service) GetOrCreate(ctx context.Context, userID uint) (*Wallet, error) {
	var w *Wallet
	err := s.runner.Run(ctx, func(scope *uow.Scope) error {
		var runErr error
		w, runErr = s.repo.GetOrCreate(ctx, scope.Exec(), userID)
		return runErr
	})
	return w, err
}

func (s *service) Credit(ctx context.Context, userID uint, amount float64, description string) (*Transaction, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Credit"),
		zap.Uint("user_id", userID),
		zap.Float64("amount", amount),
	)

	var entry *Transaction
	err := s.runner.Run(ctx, func(scope *uow.Scope) error {
		if _, err := s.repo.GetOrCreate(ctx, scope.Exec(), userID); err != nil {
			return err
		}
		scope.Done("wallet_ensure")

		var runErr error
		entry, runErr = s.repo.Credit(ctx, scope.Exec(), userID, amount, description, nil)
		if runErr != nil {
			return runErr
		}
		scope.Done("wallet_credit")
		return nil
	})
	if err != nil {
		log.Error("wallet credit failed", zap.Error(err))
		return nil, err
	}

	log.Info("wallet credited")
	return entry, nil
}

func (s *service) History(ctx context.Context, userID uint, page, size int) ([]Transaction, error) {
	entries, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	SortNewestFirst(entries)
	return Page(entries, page, size), nil
}
