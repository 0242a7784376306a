package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product no longer available")
	ErrInsufficientStock  = errors.New("insufficient stock")

	// ErrStockChanged means stock passed the pre-check but the guarded
	// decrement lost a race at commit time. The caller should refresh the
	// cart and resubmit; quantities are never adjusted silently.
	ErrStockChanged = errors.New("stock changed during checkout")

	ErrUnsupportedPayment = errors.New("unsupported payment method")
)

// StockError carries the offending product so the storefront can point
// at the exact line. It unwraps to one of the sentinels above.
type StockError struct {
	ProductID uint
	Name      string
	Requested int
	Available int
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %d (%s): %v (requested %d, available %d)",
		e.ProductID, e.Name, e.Err, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
