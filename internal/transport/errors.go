package transport

import (
	"errors"
	"net/http"

	"ridemods-be/internal/address"
	"ridemods-be/internal/cart"
	"ridemods-be/internal/checkout"
	"ridemods-be/internal/order"
	"ridemods-be/internal/product"
	"ridemods-be/internal/promotion"
	"ridemods-be/internal/uow"
	"ridemods-be/internal/wallet"
)

// errorStatus is the single place domain errors become HTTP statuses.
// Handlers never translate errors themselves.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, promotion.ErrInvalidDiscount),
		errors.Is(err, checkout.ErrUnsupportedPayment):
		return http.StatusBadRequest

	case errors.Is(err, order.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, address.ErrAddressNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, promotion.ErrCouponNotFound),
		errors.Is(err, wallet.ErrWalletNotFound):
		return http.StatusNotFound

	case errors.Is(err, checkout.ErrInsufficientStock),
		errors.Is(err, checkout.ErrStockChanged),
		errors.Is(err, checkout.ErrProductUnavailable),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, cart.ErrProductInactive),
		errors.Is(err, promotion.ErrCouponExhausted),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrStatusConflict):
		return http.StatusConflict

	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, promotion.ErrCouponExpired),
		errors.Is(err, promotion.ErrCouponMinOrderNotMet),
		errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// partialCommit pulls out the degraded-mode failure detail, if any.
func partialCommit(err error) *uow.PartialCommitError {
	var partial *uow.PartialCommitError
	if errors.As(err, &partial) {
		return partial
	}
	return nil
}
