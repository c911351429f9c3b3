package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	DefaultDeliveryFee         = decimal.NewFromInt(10)
	DefaultFreeDeliveryMinimum = decimal.NewFromInt(150)
)

// StoreSettings holds business metadata and delivery pricing. Only the first
// record is used.
type StoreSettings struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	StoreName           string          `json:"store_name" db:"store_name"`
	Phone               string          `json:"phone" db:"phone"`
	Email               string          `json:"email" db:"email"`
	AddressLine         string          `json:"address_line" db:"address_line"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	FreeDeliveryMinimum decimal.Decimal `json:"free_delivery_minimum" db:"free_delivery_minimum"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// DefaultStoreSettings is used when no settings record has been seeded
func DefaultStoreSettings() *StoreSettings {
	return &StoreSettings{
		DeliveryFee:         DefaultDeliveryFee,
		FreeDeliveryMinimum: DefaultFreeDeliveryMinimum,
	}
}
