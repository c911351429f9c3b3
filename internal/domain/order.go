package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPreparing = "Preparando"
	OrderStatusShipped   = "Saiu para entrega"
	OrderStatusReady     = "Pronto para retirada"
	OrderStatusDelivered = "Entregue"
	OrderStatusCancelled = "Cancelado"

	PaymentStatusPending = "Pendente"
	PaymentStatusPaid    = "Pago"
)

// IsOrderStatus reports whether status is one of the known workflow labels
func IsOrderStatus(status string) bool {
	switch status {
	case OrderStatusPreparing, OrderStatusShipped, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsPaymentStatus reports whether status is a known payment status
func IsPaymentStatus(status string) bool {
	return status == PaymentStatusPending || status == PaymentStatusPaid
}

// DeliveryMethod says whether the customer picks the order up or has it delivered
type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "PICKUP"
	DeliveryMethodDelivery DeliveryMethod = "DELIVERY"
)

// ParseDeliveryMethod maps anything other than PICKUP to DELIVERY
func ParseDeliveryMethod(raw string) DeliveryMethod {
	if strings.EqualFold(strings.TrimSpace(raw), string(DeliveryMethodPickup)) {
		return DeliveryMethodPickup
	}
	return DeliveryMethodDelivery
}

// Order is a placed purchase. Items are snapshots taken at purchase time.
type Order struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	UserID            uuid.UUID        `json:"user_id" db:"user_id"`
	OrderNumber       string           `json:"order_number" db:"order_number"`
	Items             []OrderItem      `json:"items"`
	Subtotal          decimal.Decimal  `json:"subtotal" db:"subtotal"`
	DeliveryFee       decimal.Decimal  `json:"delivery_fee" db:"delivery_fee"`
	Discount          decimal.Decimal  `json:"discount" db:"discount"`
	Total             decimal.Decimal  `json:"total" db:"total"`
	Status            string           `json:"status" db:"status"`
	PaymentMethod     string           `json:"payment_method" db:"payment_method"`
	PaymentStatus     string           `json:"payment_status" db:"payment_status"`
	DeliveryMethod    DeliveryMethod   `json:"delivery_method" db:"delivery_method"`
	DeliveryAddress   *AddressSnapshot `json:"delivery_address,omitempty" db:"delivery_address"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// OrderItem is an immutable line of an order
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Category  string          `json:"category" db:"category"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// Subtotal is price times quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// ItemsSubtotal sums line subtotals rounded to cents
func ItemsSubtotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// OrderTotal is subtotal plus delivery fee minus discount, never below zero
func OrderTotal(subtotal, deliveryFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// AddressSnapshot is the delivery address as it was when the order was placed
type AddressSnapshot struct {
	Label        string `json:"label,omitempty"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country,omitempty"`
	PostalCode   string `json:"postal_code"`
}

// Value stores the snapshot as JSONB
func (a *AddressSnapshot) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan reads a JSONB snapshot
func (a *AddressSnapshot) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("unsupported address snapshot type")
	}
}
