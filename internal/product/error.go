package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrStockConflict means the conditional decrement matched no row:
	// either the product vanished or its stock dropped below the
	// requested quantity since it was last read.
	ErrStockConflict = errors.New("stock conflict")
)
