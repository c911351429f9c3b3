package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrTotalMismatch      = errors.New("order total does not match its items")
	ErrInvalidDiscount    = errors.New("discount must be between zero and the order value")
	ErrAddressRequired    = errors.New("delivery address is incomplete")
	ErrInvalidStatus      = errors.New("unknown order status")
	ErrInvalidSettings    = errors.New("delivery fee and free delivery minimum must not be negative")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidProduct     = errors.New("invalid product")
)

// ItemReason says why an order line was rejected
type ItemReason string

const (
	ReasonNotFound          ItemReason = "not_found"
	ReasonUnavailable       ItemReason = "unavailable"
	ReasonInsufficientStock ItemReason = "insufficient_stock"
	ReasonInvalidQuantity   ItemReason = "invalid_quantity"
)

// ItemError reports the first order line that cannot be fulfilled
type ItemError struct {
	ProductID   uuid.UUID
	ProductName string
	Reason      ItemReason
	Available   decimal.Decimal
}

func (e *ItemError) Error() string {
	switch e.Reason {
	case ReasonInsufficientStock:
		return fmt.Sprintf("product %s (%s) has insufficient stock, available %s", e.ProductName, e.ProductID, e.Available)
	default:
		return fmt.Sprintf("product %s (%s) rejected: %s", e.ProductName, e.ProductID, e.Reason)
	}
}
