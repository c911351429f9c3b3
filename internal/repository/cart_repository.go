package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error)
	Add(ctx context.Context, item *domain.CartItem) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ClearByUser(ctx context.Context, userID uuid.UUID) error
	Replace(ctx context.Context, userID uuid.UUID, items []domain.CartItem) error
}

type cartRepository struct {
	db *sql.DB
	tx TxManager
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB, tx TxManager) CartRepository {
	return &cartRepository{db: db, tx: tx}
}

// ListByUser returns the cart lines in the order they were added
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, product_name, category, quantity, price, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC, id
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.ProductName,
			&item.Category,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Add inserts a line or, when the product is already in the cart, adds to its
// quantity and refreshes the price snapshot
func (r *cartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, product_name, category, quantity, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT uq_cart_items_user_product
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		              price = EXCLUDED.price,
		              product_name = EXCLUDED.product_name,
		              category = EXCLUDED.category
		RETURNING id, quantity
	`

	err := conn(ctx, r.db).QueryRowContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.ProductName,
		item.Category,
		item.Quantity,
		item.Price,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID, &item.Quantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

// UpdateQuantity sets the quantity of an existing line
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}

	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	return expectOneRow(result, ErrCartItemNotFound)
}

// Remove deletes one line from the cart
func (r *cartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return expectOneRow(result, ErrCartItemNotFound)
}

// ClearByUser empties the cart; an already empty cart is not an error
func (r *cartRepository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Replace swaps the whole cart for items atomically
func (r *cartRepository) Replace(ctx context.Context, userID uuid.UUID, items []domain.CartItem) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := r.ClearByUser(ctx, userID); err != nil {
			return err
		}

		for i := range items {
			items[i].UserID = userID
			if err := r.Add(ctx, &items[i]); err != nil {
				return err
			}
		}

		return nil
	})
}
