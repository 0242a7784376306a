package wallet

import (
	"time"

	"github.com/google/uuid"
)

type Wallet struct {
	ID        uint
	UserID    uint
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TxType string

const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
	TxRefund TxType = "refund"
)

// Transaction is one append-only ledger entry. Amount is always positive;
// the type carries the sign.
type Transaction struct {
	ID          uuid.UUID
	WalletID    uint
	Type        TxType
	Amount      float64
	Description string
	OrderID     *uint
	CreatedAt   time.Time
}

// Signed returns the entry's contribution to the balance.
func (t Transaction) Signed() float64 {
	if t.Type == TxDebit {
		return -t.Amount
	}
	return t.Amount
}
