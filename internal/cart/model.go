package cart

import "time"

// Cart is one per user, created lazily on the first add. It is cleared,
// never deleted, on a successful checkout.
type Cart struct {
	ID             uint
	UserID         uint
	CouponCode     *string
	CouponDiscount *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []CartItem
}

// CartItem snapshots the unit price at add-time; checkout re-reads the
// catalog price when quoting.
type CartItem struct {
	ID        uint
	CartID    uint
	ProductID uint
	Variant   string
	Quantity  int
	UnitPrice float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AddItemParams struct {
	UserID    uint
	ProductID uint
	Variant   string
	Quantity  int
	UnitPrice float64
}

type UpdateItemParams struct {
	UserID    uint
	ProductID uint
	Variant   string
	Quantity  int
}

type RemoveItemParams struct {
	UserID    uint
	ProductID uint
	Variant   string
}
