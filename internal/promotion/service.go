package promotion

import (
	"context"
	"strings"
	"time"

	"ridemods-be/internal/cache"
	"ridemods-be/internal/logger"
	"ridemods-be/internal/pricing"

	"go.uber.org/zap"
)

type Service interface {
	// ValidateCoupon resolves and checks a user-entered code against the
	// order's discounted subtotal. Callers that received an explicit code
	// must fail the whole request on error, never proceed without it.
	ValidateCoupon(ctx context.Context, code string, now time.Time, discountedSubtotal float64) (*Coupon, error)

	// ActiveOffer returns the single auto-applied offer for now, or nil.
	ActiveOffer(ctx context.Context, now time.Time) (*Offer, error)

	CreateCoupon(ctx context.Context, c Coupon) (*Coupon, error)
	CreateOffer(ctx context.Context, o Offer) (*Offer, error)
}

type service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) Service {
	return &service{repo: repo, cache: c}
}

// NormalizeCode trims and upper-cases a coupon code; all lookups and
// storage use this form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) ValidateCoupon(ctx context.Context, code string, now time.Time, discountedSubtotal float64) (*Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrCouponNotFound
	}

	coupon, err := s.repo.GetCouponByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if now.After(coupon.ExpiresAt) {
		return nil, ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, ErrCouponExhausted
	}
	if discountedSubtotal < coupon.MinOrder {
		return nil, ErrCouponMinOrderNotMet
	}

	return coupon, nil
}

func (s *service) ActiveOffer(ctx context.Context, now time.Time) (*Offer, error) {
	var cached Offer
	if err := s.cache.GetJSON(ctx, cache.ActiveOfferKey, &cached); err == nil {
		// The TTL can outlive the offer window, so re-check it.
		if !now.Before(cached.StartsAt) && !now.After(cached.EndsAt) {
			return &cached, nil
		}
	}

	offer, err := s.repo.FindApplicableOffer(ctx, now)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, nil
	}

	s.cache.SetJSON(ctx, cache.ActiveOfferKey, offer)
	return offer, nil
}

func (s *service) CreateCoupon(ctx context.Context, c Coupon) (*Coupon, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCoupon"),
		zap.String("code", c.Code),
	)

	c.Code = NormalizeCode(c.Code)
	if c.Code == "" || c.Value <= 0 {
		return nil, ErrInvalidDiscount
	}
	if c.Type == pricing.DiscountPercentage && c.Value > MaxPercentageDiscount {
		log.Warn("percentage discount above cap rejected", zap.Float64("value", c.Value))
		return nil, ErrInvalidDiscount
	}

	created, err := s.repo.CreateCoupon(ctx, c)
	if err != nil {
		log.Error("failed to create coupon", zap.Error(err))
		return nil, err
	}

	log.Info("coupon created", zap.Uint("coupon_id", created.ID))
	return &created, nil
}

func (s *service) CreateOffer(ctx context.Context, o Offer) (*Offer, error) {
	if o.Value <= 0 || o.EndsAt.Before(o.StartsAt) {
		return nil, ErrInvalidDiscount
	}
	if o.Type == pricing.DiscountPercentage && o.Value > MaxPercentageDiscount {
		return nil, ErrInvalidDiscount
	}
	if o.Scope == OfferScopeCategory && o.Category == nil {
		return nil, ErrInvalidDiscount
	}

	created, err := s.repo.CreateOffer(ctx, o)
	if err != nil {
		return nil, err
	}

	// A new offer may displace the cached one.
	s.cache.Delete(ctx, cache.ActiveOfferKey)

	return &created, nil
}
