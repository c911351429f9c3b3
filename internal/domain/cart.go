package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one product line in a user's cart. Quantity is kilograms for
// weight-priced products and units otherwise.
type CartItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Category    string          `json:"category" db:"category"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Subtotal is price times quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// Cart is the list of items a user intends to buy
type Cart struct {
	UserID uuid.UUID  `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// Subtotal sums the line subtotals, rounded to cents
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// TotalQuantity sums quantities across all lines
func (c *Cart) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Quantity)
	}
	return total
}

// ItemCount is the number of distinct products
func (c *Cart) ItemCount() int {
	return len(c.Items)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
