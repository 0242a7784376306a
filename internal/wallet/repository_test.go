package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetOrCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
		AddRow(1, 1, 0.0, time.Now(), time.Now())

	mock.ExpectQuery(`INSERT INTO wallets \(user_id, balance\) VALUES \(\$1, 0\) ON CONFLICT \(user_id\) DO UPDATE SET updated_at = NOW\(\)`).
		WithArgs(uint(1)).
		WillReturnRows(rows)

	w, err := repo.GetOrCreate(ctx, db, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, w.Balance)
}

func TestRepository_Debit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uint(42)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE wallets SET balance = balance - \$1, updated_at = NOW\(\) WHERE user_id = \$2 AND balance >= \$1 RETURNING id`).
			WithArgs(850.0, uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		mock.ExpectQuery(`INSERT INTO wallet_transactions`).
			WithArgs(sqlmock.AnyArg(), uint(7), TxDebit, 850.0, "order #42", &orderID).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		entry, err := repo.Debit(ctx, db, 1, 850, "order #42", &orderID)
		require.NoError(t, err)
		assert.Equal(t, TxDebit, entry.Type)
		assert.Equal(t, 850.0, entry.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		// Condition matches no row: balance below the debit amount.
		mock.ExpectQuery(`UPDATE wallets SET balance = balance - \$1`).
			WithArgs(850.0, uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Debit(ctx, db, 1, 850, "order #42", &orderID)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		_, err := repo.Debit(ctx, db, 1, 0, "zero", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = repo.Debit(ctx, db, 1, -5, "negative", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestRepository_CreditAndRefund(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Credit", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE wallets SET balance = balance \+ \$1, updated_at = NOW\(\) WHERE user_id = \$2 RETURNING id`).
			WithArgs(200.0, uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		mock.ExpectQuery(`INSERT INTO wallet_transactions`).
			WithArgs(sqlmock.AnyArg(), uint(7), TxCredit, 200.0, "goodwill", nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		entry, err := repo.Credit(ctx, db, 1, 200, "goodwill", nil)
		require.NoError(t, err)
		assert.Equal(t, TxCredit, entry.Type)
	})

	t.Run("RefundCarriesOrder", func(t *testing.T) {
		orderID := uint(42)

		mock.ExpectQuery(`UPDATE wallets SET balance = balance \+ \$1`).
			WithArgs(850.0, uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		mock.ExpectQuery(`INSERT INTO wallet_transactions`).
			WithArgs(sqlmock.AnyArg(), uint(7), TxRefund, 850.0, "return of order #42", &orderID).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		entry, err := repo.Refund(ctx, db, 1, 850, "return of order #42", &orderID)
		require.NoError(t, err)
		assert.Equal(t, TxRefund, entry.Type)
		require.NotNil(t, entry.OrderID)
		assert.Equal(t, uint(42), *entry.OrderID)
	})

	t.Run("WalletMissing", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE wallets SET balance = balance \+ \$1`).
			WithArgs(10.0, uint(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Credit(ctx, db, 9, 10, "orphan", nil)
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})
}

func TestRepository_ListTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "wallet_id", "tx_type", "amount", "description", "order_id", "created_at"}).
		AddRow("3b6f2f1e-9a43-4c9f-9d7a-111111111111", 7, TxDebit, 850.0, "order #42", 42, time.Now()).
		AddRow("3b6f2f1e-9a43-4c9f-9d7a-222222222222", 7, TxCredit, 1000.0, "top up", nil, time.Now().Add(-time.Hour))

	mock.ExpectQuery(`SELECT .* FROM wallet_transactions t JOIN wallets w ON w.id = t.wallet_id WHERE w.user_id = \$1 ORDER BY t.created_at DESC`).
		WithArgs(uint(1)).
		WillReturnRows(rows)

	entries, err := repo.ListTransactions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, TxDebit, entries[0].Type)
	assert.Equal(t, 150.0, SumHistory(entries))
}
