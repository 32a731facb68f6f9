package inventory

import (
	"errors"
	"fmt"
)

// ErrTicketTypeNotFound is returned when a referenced ticket type row does
// not exist at lock time.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// InsufficientStockError reports the first ticket type whose remaining stock
// cannot cover the requested quantity.
type InsufficientStockError struct {
	TicketTypeID uint
	Requested    int
	Available    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for ticket type %d: requested %d, available %d",
		e.TicketTypeID, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
