package cart

import (
	"context"
	"time"

	"ridemods-be/internal/logger"
	"ridemods-be/internal/pricing"
	"ridemods-be/internal/product"
	"ridemods-be/internal/promotion"

	"go.uber.org/zap"
)

// View is the cart plus its live quote: prices re-read from the catalog,
// the running offer applied, and the stored coupon re-validated.
type View struct {
	Cart      *Cart
	Breakdown pricing.Breakdown
}

type Service interface {
	GetCart(ctx context.Context, userID uint) (*View, error)
	AddItem(ctx context.Context, params AddItemParams) (*View, error)
	UpdateQuantity(ctx context.Context, params UpdateItemParams) (*View, error)
	RemoveItem(ctx context.Context, params RemoveItemParams) (*View, error)

	// ApplyCoupon validates the code against the offer-discounted
	// subtotal and pins it to the cart for checkout.
	ApplyCoupon(ctx context.Context, userID uint, code string) (*View, error)
	RemoveCoupon(ctx context.Context, userID uint) error
}

type service struct {
	repo       Repository
	products   product.Repository
	promotions promotion.Service
}

func NewService(repo Repository, products product.Repository, promotions promotion.Service) Service {
	return &service{repo: repo, products: products, promotions: promotions}
}

func (s *service) GetCart(ctx context.Context, userID uint) (*View, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &View{Cart: &Cart{UserID: userID}}, nil
	}
	return s.buildView(ctx, c)
}

func (s *service) AddItem(ctx context.Context, params AddItemParams) (*View, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.Uint("user_id", params.UserID),
		zap.Uint("product_id", params.ProductID),
	)

	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Status != product.StatusActive {
		return nil, ErrProductInactive
	}

	c, err := s.repo.GetOrCreate(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	// Advisory check against the quantity already in the cart; checkout
	// re-verifies with the conditional decrement.
	existing := 0
	for _, item := range c.Items {
		if item.ProductID == params.ProductID && item.Variant == params.Variant {
			existing = item.Quantity
		}
	}
	if existing+params.Quantity > p.Stock {
		log.Warn("add rejected, not enough stock",
			zap.Int("requested", existing+params.Quantity),
			zap.Int("stock", p.Stock),
		)
		return nil, ErrInsufficientStock
	}

	params.UnitPrice = p.Price
	if _, err := s.repo.UpsertItem(ctx, c.ID, params); err != nil {
		return nil, err
	}

	log.Info("item added to cart")
	return s.reload(ctx, params.UserID)
}

func (s *service) UpdateQuantity(ctx context.Context, params UpdateItemParams) (*View, error) {
	c, err := s.repo.GetByUser(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartItemNotFound
	}

	p, err := s.products.GetByID(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}
	if params.Quantity > p.Stock {
		return nil, ErrInsufficientStock
	}

	if err := s.repo.UpdateItemQuantity(ctx, c.ID, params); err != nil {
		return nil, err
	}

	return s.reload(ctx, params.UserID)
}

func (s *service) RemoveItem(ctx context.Context, params RemoveItemParams) (*View, error) {
	c, err := s.repo.GetByUser(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartItemNotFound
	}

	if err := s.repo.RemoveItem(ctx, c.ID, params); err != nil {
		return nil, err
	}

	return s.reload(ctx, params.UserID)
}

func (s *service) ApplyCoupon(ctx context.Context, userID uint, code string) (*View, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApplyCoupon"),
		zap.Uint("user_id", userID),
	)

	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrCartEmpty
	}

	now := time.Now()
	lines, err := s.resolveLines(ctx, c)
	if err != nil {
		return nil, err
	}

	offerTerms, err := s.offerTerms(ctx, now)
	if err != nil {
		return nil, err
	}

	// The minimum-order rule reads the offer-discounted subtotal, so
	// quote without the coupon first.
	base := pricing.Quote(lines, nil, offerTerms, 0, now)

	coupon, err := s.promotions.ValidateCoupon(ctx, code, now, base.Summary.DiscountedSubtotal)
	if err != nil {
		log.Warn("coupon rejected", zap.Error(err))
		return nil, err
	}

	terms := coupon.Terms()
	quoted := pricing.Quote(lines, &terms, offerTerms, 0, now)

	if err := s.repo.SetCoupon(ctx, c.ID, coupon.Code, quoted.Summary.CouponDiscount); err != nil {
		return nil, err
	}

	log.Info("coupon applied", zap.String("code", coupon.Code))
	return s.reload(ctx, userID)
}

func (s *service) RemoveCoupon(ctx context.Context, userID uint) error {
	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	return s.repo.ClearCoupon(ctx, c.ID)
}

func (s *service) reload(ctx context.Context, userID uint) (*View, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &View{Cart: &Cart{UserID: userID}}, nil
	}
	return s.buildView(ctx, c)
}

func (s *service) buildView(ctx context.Context, c *Cart) (*View, error) {
	if len(c.Items) == 0 {
		return &View{Cart: c}, nil
	}

	now := time.Now()
	lines, err := s.resolveLines(ctx, c)
	if err != nil {
		return nil, err
	}

	offerTerms, err := s.offerTerms(ctx, now)
	if err != nil {
		return nil, err
	}

	var couponTerms *pricing.CouponTerms
	if c.CouponCode != nil {
		base := pricing.Quote(lines, nil, offerTerms, 0, now)
		coupon, err := s.promotions.ValidateCoupon(ctx, *c.CouponCode, now, base.Summary.DiscountedSubtotal)
		if err == nil {
			terms := coupon.Terms()
			couponTerms = &terms
		} else {
			// A stored coupon that no longer validates is dropped
			// silently from the view; checkout will drop it for real.
			logger.FromCtx(ctx).Warn("stored coupon no longer valid",
				zap.String("code", *c.CouponCode), zap.Error(err))
		}
	}

	return &View{
		Cart:      c,
		Breakdown: pricing.Quote(lines, couponTerms, offerTerms, 0, now),
	}, nil
}

// resolveLines re-reads the catalog for every cart item: live price and
// category, not the add-time snapshot.
func (s *service) resolveLines(ctx context.Context, c *Cart) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pricing.Line{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Variant:   item.Variant,
			ImageURL:  p.ImageURL,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

func (s *service) offerTerms(ctx context.Context, now time.Time) (*pricing.OfferTerms, error) {
	offer, err := s.promotions.ActiveOffer(ctx, now)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, nil
	}
	terms := offer.Terms()
	return &terms, nil
}
