package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a product a user wants to find again
type Favorite struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
