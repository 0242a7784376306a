package wallet

import (
	"context"
	"database/sql"
	"errors"

	"ridemods-be/internal/uow"

	"github.com/google/uuid"
)

// Repository mutations take a uow.Executor: a wallet is never debited or
// refunded outside the unit of work of the order that caused it.
type Repository interface {
	GetByUser(ctx context.Context, userID uint) (*Wallet, error)
	GetOrCreate(ctx context.Context, exec uow.Executor, userID uint) (*Wallet, error)

	// Credit / Refund add funds; Debit removes them and fails with
	// ErrInsufficientFunds when the balance is too low. The balance
	// check and update are a single conditional statement so concurrent
	// debits for the same user serialize on the row.
	Credit(ctx context.Context, exec uow.Executor, userID uint, amount float64, description string, orderID *uint) (*Transaction, error)
	Debit(ctx context.Context, exec uow.Executor, userID uint, amount float64, description string, orderID *uint) (*Transaction, error)
	Refund(ctx context.Context, exec uow.Executor, userID uint, amount float64, description string, orderID *uint) (*Transaction, error)

	// ListTransactions returns the full ledger for a user, newest first.
	// Histories are small and colocated with their owner; paging happens
	// in the service via Page.
	ListTransactions(ctx context.Context, userID uint) ([]Transaction, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUser(ctx context.Context, userID uint) (*Wallet, error) {
	var w Wallet
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetOrCreate(ctx context.Context, exec uow.Executor, userID uint) (*Wallet, error) {
	var w Wallet
	err := exec.QueryRowContext(ctx, `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, balance, created_at, updated_at
	`, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) Credit(ctx context.Context, exec uow.Executor, userID uint, amount float64, description string, orderID *uint) (*Transaction, error) {
	return r.add(ctx, exec, userID, TxCredit, amount, description, orderID)
}

func (r *repository) Refund(ctx context.Context, exec uow.Executor, userID uint, amount float64, description string, orderID *uint) (*Transaction, error) {
	return r.add(ctx, exec, userID, TxRefund, amount, description, orderID)
}

func (r *repository) add(ctx context.Context, exec uow.Executor, userID uint, txType TxType, amount float64, description string, orderID *uint) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var walletID uint
	err := exec.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING id
	`, amount, userID).Scan(&walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}

	return r.appendEntry(ctx, exec, walletID, txType, amount, description, orderID)
}

func (r *repository) Debit(ctx context.Context, exec uow.Executor, userID uint, amount float64, description string, orderID *uint) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// The balance condition rides on the update itself: the row lock
	// serializes concurrent debits and the balance can never go negative.
	var walletID uint
	err := exec.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING id
	`, amount, userID).Scan(&walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}

	return r.appendEntry(ctx, exec, walletID, TxDebit, amount, description, orderID)
}

func (r *repository) appendEntry(ctx context.Context, exec uow.Executor, walletID uint, txType TxType, amount float64, description string, orderID *uint) (*Transaction, error) {
	entry := Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		OrderID:     orderID,
	}

	err := exec.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, tx_type, amount, description, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, entry.ID, entry.WalletID, entry.Type, entry.Amount, entry.Description, entry.OrderID).
		Scan(&entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID uint) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.wallet_id, t.tx_type, t.amount, t.description, t.order_id, t.created_at
		FROM wallet_transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Transaction
	for rows.Next() {
		var e Transaction
		if err := rows.Scan(
			&e.ID, &e.WalletID, &e.Type, &e.Amount, &e.Description, &e.OrderID, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
