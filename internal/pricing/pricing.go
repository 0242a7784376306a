package pricing

import (
	"math"
	"time"
)

// TaxRate is applied to the post-discount subtotal. Kept at zero until
// regional tax rules land.
const TaxRate = 0.0

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// OfferScopeAll marks an offer that applies to every category.
const OfferScopeAll = "all"

// Line is a resolved cart line: price snapshot and category come from the
// catalog at quote time.
type Line struct {
	ProductID uint
	Name      string
	Category  string
	Variant   string
	ImageURL  string
	UnitPrice float64
	Quantity  int
}

// CouponTerms are the discount terms of an already-validated coupon.
type CouponTerms struct {
	Type        DiscountType
	Value       float64
	MinOrder    float64
	MaxDiscount *float64
}

// OfferTerms are the discount terms of an auto-applied offer.
type OfferTerms struct {
	Type     DiscountType
	Value    float64
	Scope    string // OfferScopeAll or a category name
	StartsAt time.Time
	EndsAt   time.Time
}

func (o OfferTerms) ActiveAt(now time.Time) bool {
	return !now.Before(o.StartsAt) && !now.After(o.EndsAt)
}

func (o OfferTerms) AppliesTo(category string) bool {
	return o.Scope == OfferScopeAll || o.Scope == category
}

// QuotedItem is one line of the itemized breakdown. LineSubtotal is priced
// from the base unit price, LineTotal from the offer-adjusted one.
type QuotedItem struct {
	ProductID      uint
	Name           string
	Category       string
	Variant        string
	ImageURL       string
	Quantity       int
	UnitPrice      float64
	OfferUnitPrice float64
	LineSubtotal   float64
	LineTotal      float64
}

type Summary struct {
	Subtotal           float64
	OfferDiscount      float64
	DiscountedSubtotal float64
	CouponDiscount     float64
	Tax                float64
	Shipping           float64
	Total              float64
}

type Breakdown struct {
	Items   []QuotedItem
	Summary Summary
}

// Round2 rounds to 2 decimal places, half-up. Every monetary output goes
// through this so totals match across call sites.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Quote computes the itemized discount breakdown and totals for a cart.
// Offer first, per line; then the coupon against the discounted subtotal.
// Pure: no I/O, identical inputs yield identical output.
func Quote(lines []Line, coupon *CouponTerms, offer *OfferTerms, shipping float64, now time.Time) Breakdown {
	items := make([]QuotedItem, 0, len(lines))

	var subtotal, offerDiscount float64

	for _, line := range lines {
		unitDiscount := 0.0
		if offer != nil && offer.ActiveAt(now) && offer.AppliesTo(line.Category) {
			switch offer.Type {
			case DiscountPercentage:
				unitDiscount = line.UnitPrice * offer.Value / 100
			case DiscountFlat:
				unitDiscount = offer.Value
			}
			if unitDiscount > line.UnitPrice {
				unitDiscount = line.UnitPrice
			}
			if unitDiscount < 0 {
				unitDiscount = 0
			}
		}

		offerUnit := line.UnitPrice - unitDiscount
		qty := float64(line.Quantity)

		subtotal += line.UnitPrice * qty
		offerDiscount += unitDiscount * qty

		items = append(items, QuotedItem{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Category:       line.Category,
			Variant:        line.Variant,
			ImageURL:       line.ImageURL,
			Quantity:       line.Quantity,
			UnitPrice:      Round2(line.UnitPrice),
			OfferUnitPrice: Round2(offerUnit),
			LineSubtotal:   Round2(line.UnitPrice * qty),
			LineTotal:      Round2(offerUnit * qty),
		})
	}

	discountedSubtotal := subtotal - offerDiscount

	couponDiscount := 0.0
	if coupon != nil && discountedSubtotal >= coupon.MinOrder {
		switch coupon.Type {
		case DiscountPercentage:
			couponDiscount = discountedSubtotal * coupon.Value / 100
		case DiscountFlat:
			couponDiscount = coupon.Value
		}
		if coupon.MaxDiscount != nil && couponDiscount > *coupon.MaxDiscount {
			couponDiscount = *coupon.MaxDiscount
		}
		if couponDiscount > discountedSubtotal {
			couponDiscount = discountedSubtotal
		}
	}

	tax := (discountedSubtotal - couponDiscount) * TaxRate
	total := discountedSubtotal - couponDiscount + tax + shipping

	return Breakdown{
		Items: items,
		Summary: Summary{
			Subtotal:           Round2(subtotal),
			OfferDiscount:      Round2(offerDiscount),
			DiscountedSubtotal: Round2(discountedSubtotal),
			CouponDiscount:     Round2(couponDiscount),
			Tax:                Round2(tax),
			Shipping:           Round2(shipping),
			Total:              Round2(total),
		},
	}
}
