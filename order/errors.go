package order

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminalState is returned by mutating calls on a completed or cancelled order.
	ErrTerminalState = errors.New("order is no longer in progress")
	// ErrEmptyOrder is returned when completing an order with no line items.
	ErrEmptyOrder = errors.New("order has no items to complete")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// PersistenceError reports a failure to write the order's durable trace.
// The in-memory order is unchanged when one is returned from a command.
type PersistenceError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order %s: failed to %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is or wraps a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
