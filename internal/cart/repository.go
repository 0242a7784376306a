package cart

import (
	"context"
	"database/sql"
	"errors"

	"ridemods-be/internal/logger"
	"ridemods-be/internal/uow"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByUser(ctx context.Context, userID uint) (*Cart, error)
	GetOrCreate(ctx context.Context, userID uint) (*Cart, error)
	UpsertItem(ctx context.Context, cartID uint, params AddItemParams) (*CartItem, error)
	UpdateItemQuantity(ctx context.Context, cartID uint, params UpdateItemParams) error
	RemoveItem(ctx context.Context, cartID uint, params RemoveItemParams) error
	SetCoupon(ctx context.Context, cartID uint, code string, discount float64) error
	ClearCoupon(ctx context.Context, cartID uint) error

	// Clear empties the cart and drops the applied coupon on the
	// caller's executor so it joins the checkout unit of work.
	Clear(ctx context.Context, exec uow.Executor, cartID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUser(ctx context.Context, userID uint) (*Cart, error) {
	var c Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, coupon_code, coupon_discount, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.CouponCode, &c.CouponDiscount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cart_id, product_id, variant, quantity, unit_price, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Variant,
			&item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
	}

	return &c, rows.Err()
}

func (r *repository) GetOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	c, err := r.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	var created Cart
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at
	`, userID).Scan(&created.ID, &created.UserID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) UpsertItem(ctx context.Context, cartID uint, params AddItemParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpsertItem"),
		zap.Uint("cart_id", cartID),
		zap.Uint("product_id", params.ProductID),
	)

	var item CartItem
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, variant, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id, variant)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, cart_id, product_id, variant, quantity, unit_price, created_at, updated_at
	`, cartID, params.ProductID, params.Variant, params.Quantity, params.UnitPrice).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Variant,
		&item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			log.Warn("concurrent cart insert lost the race", zap.Error(err))
		} else {
			log.Error("failed to upsert cart item", zap.Error(err))
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, cartID uint, params UpdateItemParams) error {
	if params.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE cart_id = $2 AND product_id = $3 AND variant = $4
	`, params.Quantity, cartID, params.ProductID, params.Variant)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) RemoveItem(ctx context.Context, cartID uint, params RemoveItemParams) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND variant = $3
	`, cartID, params.ProductID, params.Variant)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) SetCoupon(ctx context.Context, cartID uint, code string, discount float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET coupon_code = $1, coupon_discount = $2, updated_at = NOW()
		WHERE id = $3
	`, code, discount, cartID)
	return err
}

func (r *repository) ClearCoupon(ctx context.Context, cartID uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET coupon_code = NULL, coupon_discount = NULL, updated_at = NOW()
		WHERE id = $1
	`, cartID)
	return err
}

func (r *repository) Clear(ctx context.Context, exec uow.Executor, cartID uint) error {
	if _, err := exec.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1
	`, cartID); err != nil {
		return err
	}

	_, err := exec.ExecContext(ctx, `
		UPDATE carts
		SET coupon_code = NULL, coupon_discount = NULL, updated_at = NOW()
		WHERE id = $1
	`, cartID)
	return err
}
