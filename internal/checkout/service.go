package checkout

import (
	"context"
	"errors"
	"time"

	"ridemods-be/internal/address"
	"ridemods-be/internal/cache"
	"ridemods-be/internal/cart"
	"ridemods-be/internal/logger"
	"ridemods-be/internal/metrics"
	"ridemods-be/internal/order"
	"ridemods-be/internal/pricing"
	"ridemods-be/internal/product"
	"ridemods-be/internal/promotion"
	"ridemods-be/internal/uow"
	"ridemods-be/internal/wallet"

	"go.uber.org/zap"
)

type PlaceOrderInput struct {
	UserID        uint
	AddressID     string
	PaymentMethod order.PaymentMethod

	// CouponCode overrides the cart's stored coupon when set. An explicit
	// code that fails validation fails the whole checkout.
	CouponCode *string

	ContactName  string
	ContactEmail string
}

type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*order.Order, error)
}

type service struct {
	carts      cart.Repository
	products   product.Repository
	addresses  address.Repository
	promotions promotion.Service
	promoRepo  promotion.Repository
	wallets    wallet.Repository
	orders     order.Repository
	runner     uow.Runner
	cache      *cache.Cache
	metrics    *metrics.Checkout
}

func NewService(
	carts cart.Repository,
	products product.Repository,
	addresses address.Repository,
	promotions promotion.Service,
	promoRepo promotion.Repository,
	wallets wallet.Repository,
	orders order.Repository,
	runner uow.Runner,
	c *cache.Cache,
	m *metrics.Checkout,
) Service {
	return &service{
		carts:      carts,
		products:   products,
		addresses:  addresses,
		promotions: promotions,
		promoRepo:  promoRepo,
		wallets:    wallets,
		orders:     orders,
		runner:     runner,
		cache:      c,
		metrics:    m,
	}
}

// PlaceOrder turns the user's cart into a committed order. Read-only
// validation happens first; the writes then run inside one unit of work
// in a fixed order: stock decrement, wallet debit, order insert, coupon
// usage increment, cart clear. Later steps only run once earlier ones
// are known to have succeeded.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Uint("user_id", input.UserID),
		zap.String("payment_method", string(input.PaymentMethod)),
	)
	timer := metrics.StartTimer()
	s.metrics.Attempts.Inc()

	if input.PaymentMethod != order.PaymentWallet && input.PaymentMethod != order.PaymentCashOnDelivery {
		return nil, ErrUnsupportedPayment
	}

	c, err := s.carts.GetByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	addr, err := s.addresses.GetUserAddress(ctx, input.AddressID, input.UserID)
	if err != nil {
		return nil, err
	}

	lines, err := s.validateLines(ctx, c)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	var offerTerms *pricing.OfferTerms
	offer, err := s.promotions.ActiveOffer(ctx, now)
	if err != nil {
		return nil, err
	}
	if offer != nil {
		terms := offer.Terms()
		offerTerms = &terms
	}

	couponCode := c.CouponCode
	if input.CouponCode != nil {
		couponCode = input.CouponCode
	}

	var coupon *promotion.Coupon
	var couponTerms *pricing.CouponTerms
	if couponCode != nil && *couponCode != "" {
		// Minimum-order rules read the offer-discounted subtotal.
		base := pricing.Quote(lines, nil, offerTerms, 0, now)
		coupon, err = s.promotions.ValidateCoupon(ctx, *couponCode, now, base.Summary.DiscountedSubtotal)
		if err != nil {
			log.Warn("coupon rejected at checkout", zap.Error(err))
			return nil, err
		}
		terms := coupon.Terms()
		couponTerms = &terms
	}

	breakdown := pricing.Quote(lines, couponTerms, offerTerms, 0, now)
	o := s.buildOrder(input, addr, coupon, breakdown, now)

	err = s.runner.Run(ctx, func(scope *uow.Scope) error {
		for _, line := range lines {
			if err := s.products.DecrementStock(ctx, scope.Exec(), line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, product.ErrStockConflict) {
					return &StockError{
						ProductID: line.ProductID,
						Name:      line.Name,
						Requested: line.Quantity,
						Err:       ErrStockChanged,
					}
				}
				return err
			}
		}
		scope.Done("stock_decrement")

		if o.PaymentMethod == order.PaymentWallet {
			if _, err := s.wallets.GetOrCreate(ctx, scope.Exec(), input.UserID); err != nil {
				return err
			}
			if _, err := s.wallets.Debit(ctx, scope.Exec(), input.UserID, o.Total, "checkout payment", nil); err != nil {
				return err
			}
			scope.Done("wallet_debit")
		}

		if err := s.orders.Insert(ctx, scope.Exec(), o); err != nil {
			return err
		}
		scope.Done("order_insert")

		if coupon != nil {
			if err := s.promoRepo.IncrementUsage(ctx, scope.Exec(), coupon.ID); err != nil {
				return err
			}
			scope.Done("coupon_increment")
		}

		if err := s.carts.Clear(ctx, scope.Exec(), c.ID); err != nil {
			return err
		}
		scope.Done("cart_clear")

		return nil
	})
	if err != nil {
		s.countFailure(err)
		log.Error("checkout failed", zap.Error(err), zap.Duration("took", timer.Duration()))
		return nil, err
	}

	s.metrics.Completed.Inc()

	// Stock moved, so any cached product reads are stale now.
	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		keys = append(keys, cache.ProductKey(line.ProductID))
	}
	s.cache.Delete(ctx, keys...)

	log.Info("order placed",
		zap.Uint("order_id", o.ID),
		zap.Float64("total", o.Total),
		zap.String("status", string(o.Status)),
		zap.Duration("took", timer.Duration()),
	)
	return o, nil
}

// validateLines is the cheap pre-check: it rejects requests that are
// obviously doomed before any unit of work is opened. The guarded
// decrement inside the unit of work is the authoritative check.
func (s *service) validateLines(ctx context.Context, c *cart.Cart) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		p, err := s.products.GetByID(ctx, item.ProductID)
		if errors.Is(err, product.ErrProductNotFound) {
			return nil, &StockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Err:       ErrProductUnavailable,
			}
		}
		if err != nil {
			return nil, err
		}
		if p.Status != product.StatusActive {
			return nil, &StockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: item.Quantity,
				Available: p.Stock,
				Err:       ErrProductUnavailable,
			}
		}
		if item.Quantity > p.Stock {
			return nil, &StockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: item.Quantity,
				Available: p.Stock,
				Err:       ErrInsufficientStock,
			}
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

func (s *service) buildOrder(input PlaceOrderInput, addr *address.Address, coupon *promotion.Coupon, breakdown pricing.Breakdown, now time.Time) *order.Order {
	items := make([]order.OrderItem, 0, len(breakdown.Items))
	for _, quoted := range breakdown.Items {
		items = append(items, order.OrderItem{
			ProductID: quoted.ProductID,
			Name:      quoted.Name,
			Variant:   quoted.Variant,
			ImageURL:  quoted.ImageURL,
			UnitPrice: quoted.UnitPrice,
			Quantity:  quoted.Quantity,
			Subtotal:  quoted.LineSubtotal,
		})
	}

	o := &order.Order{
		UserID: input.UserID,
		Items:  items,
		ShippingAddress: order.AddressSnapshot{
			ReceiverName: addr.ReceiverName,
			Phone:        addr.Phone,
			Line1:        addr.Line1,
			Line2:        addr.Line2,
			City:         addr.City,
			Province:     addr.Province,
			PostalCode:   addr.PostalCode,
			Country:      addr.Country,
		},
		Contact: order.ContactSnapshot{
			Name:  input.ContactName,
			Email: input.ContactEmail,
		},
		Subtotal:       breakdown.Summary.Subtotal,
		OfferDiscount:  breakdown.Summary.OfferDiscount,
		CouponDiscount: breakdown.Summary.CouponDiscount,
		Tax:            breakdown.Summary.Tax,
		ShippingFee:    breakdown.Summary.Shipping,
		Total:          breakdown.Summary.Total,
		PaymentMethod:  input.PaymentMethod,
		Status:         order.StatusPending,
	}

	if coupon != nil {
		o.CouponCode = &coupon.Code
	}

	// Wallet-settled orders are paid the moment the debit lands, so they
	// skip straight to confirmed.
	if input.PaymentMethod == order.PaymentWallet {
		o.Status = order.StatusConfirmed
		o.IsPaid = true
		paidAt := now
		o.PaidAt = &paidAt
	}

	return o
}

func (s *service) countFailure(err error) {
	var partial *uow.PartialCommitError
	if errors.As(err, &partial) {
		s.metrics.PartialCommits.Inc()
	}
	if errors.Is(err, ErrStockChanged) {
		s.metrics.StockConflicts.Inc()
	}
	if errors.Is(err, wallet.ErrInsufficientFunds) {
		s.metrics.WalletDeclines.Inc()
	}
}
