package promotion

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetCouponByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "code", "discount_type", "discount_value", "min_order", "max_discount",
			"usage_limit", "used_count", "expires_at", "created_at", "updated_at",
		}).AddRow(
			1, "WELCOME10", "percentage", 10.0, 0.0, nil,
			100, 4, time.Now().Add(24*time.Hour), time.Now(), time.Now(),
		)

		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("WELCOME10").
			WillReturnRows(rows)

		c, err := repo.GetCouponByCode(ctx, "WELCOME10")
		assert.NoError(t, err)
		assert.Equal(t, "WELCOME10", c.Code)
		assert.Equal(t, 4, c.UsedCount)
		require.NotNil(t, c.UsageLimit)
		assert.Equal(t, 100, *c.UsageLimit)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("NOPE").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetCouponByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})
}

func TestRepository_FindApplicableOffer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("NewestActiveOffer", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "discount_type", "discount_value", "scope", "category",
			"starts_at", "ends_at", "created_at",
		}).AddRow(
			3, "Summer Suspension Sale", "percentage", 20.0, OfferScopeCategory, "suspension",
			now.Add(-time.Hour), now.Add(time.Hour), now.Add(-time.Minute),
		)

		mock.ExpectQuery(`SELECT .* FROM offers WHERE starts_at <= \$1 AND ends_at >= \$1 ORDER BY created_at DESC LIMIT 1`).
			WithArgs(now).
			WillReturnRows(rows)

		o, err := repo.FindApplicableOffer(ctx, now)
		assert.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, uint(3), o.ID)
		assert.Equal(t, "suspension", *o.Category)
	})

	t.Run("NoneRunning", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM offers`).
			WithArgs(now).
			WillReturnError(sql.ErrNoRows)

		o, err := repo.FindApplicableOffer(ctx, now)
		assert.NoError(t, err)
		assert.Nil(t, o)
	})
}

func TestRepository_IncrementUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1, updated_at = NOW\(\) WHERE id = \$1 AND \(usage_limit IS NULL OR used_count < usage_limit\)`).
			WithArgs(uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.IncrementUsage(ctx, db, 1)
		assert.NoError(t, err)
	})

	t.Run("Exhausted", func(t *testing.T) {
		mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
			WithArgs(uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.IncrementUsage(ctx, db, 1)
		assert.ErrorIs(t, err, ErrCouponExhausted)
	})
}
