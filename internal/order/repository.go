package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ridemods-be/internal/uow"

	"github.com/lib/pq"
)

type Repository interface {
	// Insert writes the order, its item snapshots and the opening status
	// history row on the caller's executor so the whole snapshot joins
	// the checkout unit of work.
	Insert(ctx context.Context, exec uow.Executor, o *Order) error

	// GetSummary reads the fields the status machine and refund logic
	// need, on the caller's executor.
	GetSummary(ctx context.Context, exec uow.Executor, orderID uint) (*Order, error)

	// AppendStatus flips the status only if it still equals from, then
	// appends the history row. Returns ErrStatusConflict when a
	// concurrent update won.
	AppendStatus(ctx context.Context, exec uow.Executor, orderID uint, from, to OrderStatus, actor string, comment *string) error

	GetDetail(ctx context.Context, orderID uint) (*Order, error)
	Fetch(ctx context.Context, userID *uint, filter *OrderFilterInput, sort *OrderSortInput, limit, offset int) ([]Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, exec uow.Executor, o *Order) error {
	err := exec.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, contact_name, contact_email,
			addr_receiver_name, addr_phone, addr_line1, addr_line2,
			addr_city, addr_province, addr_postal_code, addr_country,
			subtotal, offer_discount, coupon_discount, tax, shipping_fee, total,
			coupon_code, payment_method, is_paid, paid_at, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, updated_at
	`,
		o.UserID, o.Contact.Name, o.Contact.Email,
		o.ShippingAddress.ReceiverName, o.ShippingAddress.Phone,
		o.ShippingAddress.Line1, o.ShippingAddress.Line2,
		o.ShippingAddress.City, o.ShippingAddress.Province,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		o.Subtotal, o.OfferDiscount, o.CouponDiscount, o.Tax, o.ShippingFee, o.Total,
		o.CouponCode, o.PaymentMethod, o.IsPaid, o.PaidAt, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := exec.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, variant, image_url, unit_price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, item.OrderID, item.ProductID, item.Name, item.Variant,
			item.ImageURL, item.UnitPrice, item.Quantity, item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	var opening StatusEvent
	err = exec.QueryRowContext(ctx, `
		INSERT INTO order_status_history (order_id, status, actor, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, o.ID, o.Status, "system", nil).Scan(&opening.ID, &opening.CreatedAt)
	if err != nil {
		return err
	}

	opening.OrderID = o.ID
	opening.Status = o.Status
	opening.Actor = "system"
	o.StatusHistory = append(o.StatusHistory, opening)

	return nil
}

func (r *repository) GetSummary(ctx context.Context, exec uow.Executor, orderID uint) (*Order, error) {
	var o Order
	err := exec.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, payment_method, is_paid
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.PaymentMethod, &o.IsPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) AppendStatus(ctx context.Context, exec uow.Executor, orderID uint, from, to OrderStatus, actor string, comment *string) error {
	res, err := exec.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, orderID, from)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, actor, comment)
		VALUES ($1, $2, $3, $4)
	`, orderID, to, actor, comment)
	return err
}

func (r *repository) GetDetail(ctx context.Context, orderID uint) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, contact_name, contact_email,
		       addr_receiver_name, addr_phone, addr_line1, addr_line2,
		       addr_city, addr_province, addr_postal_code, addr_country,
		       subtotal, offer_discount, coupon_discount, tax, shipping_fee, total,
		       coupon_code, payment_method, is_paid, paid_at, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&o.ID, &o.UserID, &o.Contact.Name, &o.Contact.Email,
		&o.ShippingAddress.ReceiverName, &o.ShippingAddress.Phone,
		&o.ShippingAddress.Line1, &o.ShippingAddress.Line2,
		&o.ShippingAddress.City, &o.ShippingAddress.Province,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.Subtotal, &o.OfferDiscount, &o.CouponDiscount, &o.Tax, &o.ShippingFee, &o.Total,
		&o.CouponCode, &o.PaymentMethod, &o.IsPaid, &o.PaidAt, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []uint{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	history, err := r.loadHistory(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.StatusHistory = history

	return &o, nil
}

func (r *repository) Fetch(ctx context.Context, userID *uint, filter *OrderFilterInput, sort *OrderSortInput, limit, offset int) ([]Order, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if userID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argPos))
		args = append(args, *userID)
		argPos++
	}

	if filter != nil {
		if filter.Status != nil {
			conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
			args = append(args, *filter.Status)
			argPos++
		}
		if filter.Search != nil && *filter.Search != "" {
			conditions = append(conditions, fmt.Sprintf("(o.contact_name ILIKE $%d OR o.contact_email ILIKE $%d)", argPos, argPos))
			args = append(args, "%"+*filter.Search+"%")
			argPos++
		}
		if filter.DateFrom != nil {
			conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argPos))
			args = append(args, *filter.DateFrom)
			argPos++
		}
		if filter.DateTo != nil {
			conditions = append(conditions, fmt.Sprintf("o.created_at <= $%d", argPos))
			args = append(args, *filter.DateTo)
			argPos++
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "o.created_at DESC"
	if sort != nil {
		field := OrderSortFieldCreatedAt
		if sort.Field == OrderSortFieldTotal {
			field = OrderSortFieldTotal
		}
		direction := SortDirectionDesc
		if sort.Direction == SortDirectionAsc {
			direction = SortDirectionAsc
		}
		orderBy = fmt.Sprintf("o.%s %s", field, direction)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.user_id, o.contact_name, o.contact_email,
		       o.subtotal, o.offer_discount, o.coupon_discount, o.tax, o.shipping_fee, o.total,
		       o.coupon_code, o.payment_method, o.is_paid, o.paid_at, o.status, o.created_at, o.updated_at
		FROM orders o
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	var ids []uint
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Contact.Name, &o.Contact.Email,
			&o.Subtotal, &o.OfferDiscount, &o.CouponDiscount, &o.Tax, &o.ShippingFee, &o.Total,
			&o.CouponCode, &o.PaymentMethod, &o.IsPaid, &o.PaidAt, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *repository) loadItems(ctx context.Context, orderIDs []uint) (map[uint][]OrderItem, error) {
	ids := make([]int64, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, variant, image_url, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[uint][]OrderItem)
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Variant,
			&item.ImageURL, &item.UnitPrice, &item.Quantity, &item.Subtotal,
		); err != nil {
			return nil, err
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	return byOrder, rows.Err()
}

func (r *repository) loadHistory(ctx context.Context, orderID uint) ([]StatusEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, actor, comment, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []StatusEvent
	for rows.Next() {
		var ev StatusEvent
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.Status, &ev.Actor, &ev.Comment, &ev.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, ev)
	}

	return history, rows.Err()
}
