package product

import (
	"context"
	"database/sql"
	"errors"

	"ridemods-be/internal/uow"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetAll(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)

	// DecrementStock runs the conditional decrement on the caller's
	// executor so it joins the surrounding unit of work. Returns
	// ErrStockConflict when stock < qty at execution time.
	DecrementStock(ctx context.Context, exec uow.Executor, id uint, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, description, image_url, price, stock, status, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL,
		&p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, description, image_url, price, stock, status, created_at, updated_at
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL,
			&p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, category, description, image_url, price, stock, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.Name, p.Category, p.Description, p.ImageURL, p.Price, p.Stock, p.Status).Scan(&p.ID)
	return p, err
}

func (r *repository) DecrementStock(ctx context.Context, exec uow.Executor, id uint, qty int) error {
	res, err := exec.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, qty, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStockConflict
	}

	return nil
}
