package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStatusConflict means the order's status changed between read
	// and update inside the same call; the caller should re-read.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// TransitionError reports which transition was rejected; it unwraps to
// ErrInvalidTransition.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
