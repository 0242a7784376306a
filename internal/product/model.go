package product

import "time"

type Product struct {
	ID          uint
	Name        string
	Category    string
	Description string
	ImageURL    string
	Price       float64
	Stock       int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
