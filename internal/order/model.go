package order

import "time"

type PaymentMethod string

const (
	PaymentWallet         PaymentMethod = "wallet"
	PaymentCashOnDelivery PaymentMethod = "cod"
)

// Order is an immutable snapshot taken at checkout commit: item names,
// prices and the shipping address are copied so later catalog or address
// edits never rewrite history.
type Order struct {
	ID     uint
	UserID uint

	Items           []OrderItem
	ShippingAddress AddressSnapshot
	Contact         ContactSnapshot

	Subtotal       float64
	OfferDiscount  float64
	CouponDiscount float64
	Tax            float64
	ShippingFee    float64
	Total          float64
	CouponCode     *string

	PaymentMethod PaymentMethod
	IsPaid        bool
	PaidAt        *time.Time

	Status        OrderStatus
	StatusHistory []StatusEvent

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Name      string
	Variant   string
	ImageURL  string
	UnitPrice float64
	Quantity  int
	Subtotal  float64
}

// StatusEvent is one entry of the append-only audit trail.
type StatusEvent struct {
	ID        uint
	OrderID   uint
	Status    OrderStatus
	Actor     string
	Comment   *string
	CreatedAt time.Time
}

type AddressSnapshot struct {
	ReceiverName string
	Phone        string
	Line1        string
	Line2        *string
	City         string
	Province     string
	PostalCode   string
	Country      string
}

type ContactSnapshot struct {
	Name  string
	Email string
}

type OrderFilterInput struct {
	Search   *string
	Status   *OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

type OrderSortField string

const (
	OrderSortFieldCreatedAt OrderSortField = "created_at"
	OrderSortFieldTotal     OrderSortField = "total"
)

type SortDirection string

const (
	SortDirectionAsc  SortDirection = "ASC"
	SortDirectionDesc SortDirection = "DESC"
)

type OrderSortInput struct {
	Field     OrderSortField
	Direction SortDirection
}
