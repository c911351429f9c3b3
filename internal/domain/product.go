package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	CategoryID   uuid.UUID       `json:"category_id" db:"category_id"`
	CategoryName string          `json:"category" db:"category_name"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	Stock        decimal.Decimal `json:"stock" db:"stock"`
	Available    bool            `json:"available" db:"available"`
	Weight       *WeightPricing  `json:"weight,omitempty"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// WeightPricing describes the reference weight a price refers to, e.g. 1000 g
type WeightPricing struct {
	Amount decimal.Decimal `json:"amount" db:"weight_amount"`
	Unit   string          `json:"unit" db:"weight_unit"`
}

// CanFulfill reports whether the product can be sold in the given quantity
func (p *Product) CanFulfill(quantity decimal.Decimal) bool {
	return p.Available && p.Stock.GreaterThanOrEqual(quantity)
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductFilter narrows catalog listings
type ProductFilter struct {
	Category  string
	Search    string
	Available *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
