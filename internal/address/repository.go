package address

import (
	"context"
	"database/sql"
	"errors"
)

var ErrAddressNotFound = errors.New("address not found")

type Repository interface {
	// GetUserAddress loads an address only if it belongs to the given
	// user. Ownership is part of the query, not a separate check.
	GetUserAddress(ctx context.Context, addressID string, userID uint) (*Address, error)
	ListByUser(ctx context.Context, userID uint) ([]Address, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUserAddress(ctx context.Context, addressID string, userID uint) (*Address, error) {
	var a Address
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, label, receiver_name, phone, line1, line2, city, province, postal_code, country, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`, addressID, userID).Scan(
		&a.ID, &a.UserID, &a.Label, &a.ReceiverName, &a.Phone,
		&a.Line1, &a.Line2, &a.City, &a.Province, &a.PostalCode, &a.Country,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, label, receiver_name, phone, line1, line2, city, province, postal_code, country, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Label, &a.ReceiverName, &a.Phone,
			&a.Line1, &a.Line2, &a.City, &a.Province, &a.PostalCode, &a.Country,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}

	return addresses, rows.Err()
}
