package cart

import (
	"context"
	"testing"
	"time"

	"ridemods-be/internal/pricing"
	"ridemods-be/internal/product"
	"ridemods-be/internal/promotion"
	"ridemods-be/internal/uow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByUser(ctx context.Context, userID uint) (*Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) GetOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) UpsertItem(ctx context.Context, cartID uint, params AddItemParams) (*CartItem, error) {
	args := m.Called(ctx, cartID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) UpdateItemQuantity(ctx context.Context, cartID uint, params UpdateItemParams) error {
	return m.Called(ctx, cartID, params).Error(0)
}

func (m *MockRepository) RemoveItem(ctx context.Context, cartID uint, params RemoveItemParams) error {
	return m.Called(ctx, cartID, params).Error(0)
}

func (m *MockRepository) SetCoupon(ctx context.Context, cartID uint, code string, discount float64) error {
	return m.Called(ctx, cartID, code, discount).Error(0)
}

func (m *MockRepository) ClearCoupon(ctx context.Context, cartID uint) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *MockRepository) Clear(ctx context.Context, exec uow.Executor, cartID uint) error {
	return m.Called(ctx, exec, cartID).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p product.Product) (product.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(product.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, exec uow.Executor, id uint, qty int) error {
	return m.Called(ctx, exec, id, qty).Error(0)
}

type MockPromotionService struct {
	mock.Mock
}

func (m *MockPromotionService) ValidateCoupon(ctx context.Context, code string, now time.Time, discountedSubtotal float64) (*promotion.Coupon, error) {
	args := m.Called(ctx, code, now, discountedSubtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Coupon), args.Error(1)
}

func (m *MockPromotionService) ActiveOffer(ctx context.Context, now time.Time) (*promotion.Offer, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Offer), args.Error(1)
}

func (m *MockPromotionService) CreateCoupon(ctx context.Context, c promotion.Coupon) (*promotion.Coupon, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Coupon), args.Error(1)
}

func (m *MockPromotionService) CreateOffer(ctx context.Context, o promotion.Offer) (*promotion.Offer, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Offer), args.Error(1)
}

func mirrorSet() *product.Product {
	return &product.Product{
		ID: 3, Name: "Carbon Mirror Set", Category: "exterior",
		Price: 425, Stock: 10, Status: product.StatusActive,
	}
}

func TestService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductRepository)
		promotions := new(MockPromotionService)

		products.On("GetByID", ctx, uint(3)).Return(mirrorSet(), nil)
		repo.On("GetOrCreate", ctx, uint(1)).Return(&Cart{ID: 5, UserID: 1}, nil)
		repo.On("UpsertItem", ctx, uint(5), AddItemParams{
			UserID: 1, ProductID: 3, Variant: "gloss", Quantity: 2, UnitPrice: 425,
		}).Return(&CartItem{ID: 10, CartID: 5, ProductID: 3, Variant: "gloss", Quantity: 2, UnitPrice: 425}, nil)
		repo.On("GetByUser", ctx, uint(1)).Return(&Cart{
			ID: 5, UserID: 1,
			Items: []CartItem{{ID: 10, CartID: 5, ProductID: 3, Variant: "gloss", Quantity: 2, UnitPrice: 425}},
		}, nil)
		promotions.On("ActiveOffer", ctx, mock.Anything).Return(nil, nil)

		svc := NewService(repo, products, promotions)
		view, err := svc.AddItem(ctx, AddItemParams{UserID: 1, ProductID: 3, Variant: "gloss", Quantity: 2})

		require.NoError(t, err)
		assert.Equal(t, 850.0, view.Breakdown.Summary.Subtotal)
		assert.Equal(t, 850.0, view.Breakdown.Summary.Total)
		repo.AssertExpectations(t)
	})

	t.Run("NotEnoughStock", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductRepository)
		promotions := new(MockPromotionService)

		products.On("GetByID", ctx, uint(3)).Return(mirrorSet(), nil)
		repo.On("GetOrCreate", ctx, uint(1)).Return(&Cart{
			ID: 5, UserID: 1,
			Items: []CartItem{{ProductID: 3, Variant: "gloss", Quantity: 9}},
		}, nil)

		svc := NewService(repo, products, promotions)
		_, err := svc.AddItem(ctx, AddItemParams{UserID: 1, ProductID: 3, Variant: "gloss", Quantity: 2})

		assert.ErrorIs(t, err, ErrInsufficientStock)
		repo.AssertNotCalled(t, "UpsertItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InactiveProduct", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductRepository)
		promotions := new(MockPromotionService)

		disabled := mirrorSet()
		disabled.Status = product.StatusDisabled
		products.On("GetByID", ctx, uint(3)).Return(disabled, nil)

		svc := NewService(repo, products, promotions)
		_, err := svc.AddItem(ctx, AddItemParams{UserID: 1, ProductID: 3, Quantity: 1})

		assert.ErrorIs(t, err, ErrProductInactive)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockProductRepository), new(MockPromotionService))
		_, err := svc.AddItem(ctx, AddItemParams{UserID: 1, ProductID: 3, Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestService_ApplyCoupon(t *testing.T) {
	ctx := context.Background()
	code := "WELCOME10"

	loaded := func(withCoupon bool) *Cart {
		c := &Cart{
			ID: 5, UserID: 1,
			Items: []CartItem{{ID: 10, CartID: 5, ProductID: 3, Variant: "gloss", Quantity: 2, UnitPrice: 425}},
		}
		if withCoupon {
			discount := 85.0
			c.CouponCode = &code
			c.CouponDiscount = &discount
		}
		return c
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductRepository)
		promotions := new(MockPromotionService)

		repo.On("GetByUser", ctx, uint(1)).Return(loaded(false), nil).Once()
		products.On("GetByID", ctx, uint(3)).Return(mirrorSet(), nil)
		promotions.On("ActiveOffer", ctx, mock.Anything).Return(nil, nil)
		promotions.On("ValidateCoupon", ctx, code, mock.Anything, 850.0).
			Return(&promotion.Coupon{ID: 8, Code: code, Type: pricing.DiscountPercentage, Value: 10}, nil)
		repo.On("SetCoupon", ctx, uint(5), code, 85.0).Return(nil)
		repo.On("GetByUser", ctx, uint(1)).Return(loaded(true), nil)

		svc := NewService(repo, products, promotions)
		view, err := svc.ApplyCoupon(ctx, 1, code)

		require.NoError(t, err)
		assert.Equal(t, 85.0, view.Breakdown.Summary.CouponDiscount)
		assert.Equal(t, 765.0, view.Breakdown.Summary.Total)
		repo.AssertExpectations(t)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByUser", ctx, uint(1)).Return(nil, nil)

		svc := NewService(repo, new(MockProductRepository), new(MockPromotionService))
		_, err := svc.ApplyCoupon(ctx, 1, code)

		assert.ErrorIs(t, err, ErrCartEmpty)
	})

	t.Run("RejectedCouponNotStored", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductRepository)
		promotions := new(MockPromotionService)

		repo.On("GetByUser", ctx, uint(1)).Return(loaded(false), nil)
		products.On("GetByID", ctx, uint(3)).Return(mirrorSet(), nil)
		promotions.On("ActiveOffer", ctx, mock.Anything).Return(nil, nil)
		promotions.On("ValidateCoupon", ctx, code, mock.Anything, 850.0).
			Return(nil, promotion.ErrCouponMinOrderNotMet)

		svc := NewService(repo, products, promotions)
		_, err := svc.ApplyCoupon(ctx, 1, code)

		assert.ErrorIs(t, err, promotion.ErrCouponMinOrderNotMet)
		repo.AssertNotCalled(t, "SetCoupon", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
