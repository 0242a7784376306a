package promotion

import "errors"

var (
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrCouponExhausted      = errors.New("coupon usage limit reached")
	ErrCouponMinOrderNotMet = errors.New("order total below coupon minimum")

	ErrInvalidDiscount = errors.New("invalid discount definition")
)

// Percentage coupons above this cut are almost always data-entry
// mistakes, so creation rejects them.
const MaxPercentageDiscount = 70.0
