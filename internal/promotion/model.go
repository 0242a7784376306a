package promotion

import (
	"time"

	"ridemods-be/internal/pricing"
)

// Coupon is a user-entered promotional code. Codes are stored normalized
// (trimmed, upper-case) and unique.
type Coupon struct {
	ID          uint
	Code        string
	Type        pricing.DiscountType
	Value       float64
	MinOrder    float64
	MaxDiscount *float64
	UsageLimit  *int
	UsedCount   int
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Coupon) Terms() pricing.CouponTerms {
	return pricing.CouponTerms{
		Type:        c.Type,
		Value:       c.Value,
		MinOrder:    c.MinOrder,
		MaxDiscount: c.MaxDiscount,
	}
}

const (
	OfferScopeAll      = "all"
	OfferScopeCategory = "category"
)

// Offer is a code-free discount auto-applied inside its date window. At
// most one offer applies per order.
type Offer struct {
	ID        uint
	Name      string
	Type      pricing.DiscountType
	Value     float64
	Scope     string // OfferScopeAll or OfferScopeCategory
	Category  *string
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

func (o *Offer) Terms() pricing.OfferTerms {
	scope := pricing.OfferScopeAll
	if o.Scope == OfferScopeCategory && o.Category != nil {
		scope = *o.Category
	}
	return pricing.OfferTerms{
		Type:     o.Type,
		Value:    o.Value,
		Scope:    scope,
		StartsAt: o.StartsAt,
		EndsAt:   o.EndsAt,
	}
}
