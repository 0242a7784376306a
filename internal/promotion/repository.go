package promotion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridemods-be/internal/uow"
)

type Repository interface {
	GetCouponByCode(ctx context.Context, code string) (*Coupon, error)
	CreateCoupon(ctx context.Context, c Coupon) (Coupon, error)
	CreateOffer(ctx context.Context, o Offer) (Offer, error)

	// FindApplicableOffer returns the newest offer whose window contains
	// now, or nil when none is running.
	FindApplicableOffer(ctx context.Context, now time.Time) (*Offer, error)

	// IncrementUsage bumps used_count on the caller's executor so it
	// commits (or rolls back) with the surrounding order. The conditional
	// guard keeps used_count at or below usage_limit even under races.
	IncrementUsage(ctx context.Context, exec uow.Executor, couponID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetCouponByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_type, discount_value, min_order, max_discount,
		       usage_limit, used_count, expires_at, created_at, updated_at
		FROM coupons
		WHERE code = $1
	`, code).Scan(
		&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrder, &c.MaxDiscount,
		&c.UsageLimit, &c.UsedCount, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) CreateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coupons (code, discount_type, discount_value, min_order, max_discount, usage_limit, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, c.Code, c.Type, c.Value, c.MinOrder, c.MaxDiscount, c.UsageLimit, c.ExpiresAt).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) CreateOffer(ctx context.Context, o Offer) (Offer, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO offers (name, discount_type, discount_value, scope, category, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, o.Name, o.Type, o.Value, o.Scope, o.Category, o.StartsAt, o.EndsAt).
		Scan(&o.ID, &o.CreatedAt)
	return o, err
}

func (r *repository) FindApplicableOffer(ctx context.Context, now time.Time) (*Offer, error) {
	var o Offer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, discount_type, discount_value, scope, category, starts_at, ends_at, created_at
		FROM offers
		WHERE starts_at <= $1 AND ends_at >= $1
		ORDER BY created_at DESC
		LIMIT 1
	`, now).Scan(
		&o.ID, &o.Name, &o.Type, &o.Value, &o.Scope, &o.Category,
		&o.StartsAt, &o.EndsAt, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) IncrementUsage(ctx context.Context, exec uow.Executor, couponID uint) error {
	res, err := exec.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`, couponID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCouponExhausted
	}

	return nil
}
