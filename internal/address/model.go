package address

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	ID           uuid.UUID
	UserID       uint
	Label        string
	ReceiverName string
	Phone        string
	Line1        string
	Line2        *string
	City         string
	Province     string
	PostalCode   string
	Country      string
	CreatedAt    time.Time
}
