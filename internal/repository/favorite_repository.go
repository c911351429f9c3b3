package repository

import (
	"context"
	"database/sql"
	"fmt"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
)

// FavoriteRepository defines the interface for favorite data access
type FavoriteRepository interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error)
}

type favoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new instance of FavoriteRepository
func NewFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add marks a product as favorite; repeating it is a no-op
func (r *favoriteRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove unmarks a product; removing a missing favorite is a no-op
func (r *favoriteRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListByUser returns favorites with their products, most recent first
func (r *favoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error) {
	query := `
		SELECT f.user_id, f.created_at,
		       p.id, p.name, p.description, p.price, p.category_id, c.name, p.image_url,
		       p.stock, p.available, p.weight_amount, p.weight_unit, p.created_at, p.updated_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []*domain.Favorite{}
	for rows.Next() {
		favorite := &domain.Favorite{}
		product, err := scanProduct(prefixedScanner{rows: rows, prefix: []interface{}{&favorite.UserID, &favorite.CreatedAt}})
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorite.ProductID = product.ID
		favorite.Product = product
		favorites = append(favorites, favorite)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return favorites, nil
}

// prefixedScanner scans leading columns into prefix before the caller's destinations
type prefixedScanner struct {
	rows   *sql.Rows
	prefix []interface{}
}

func (s prefixedScanner) Scan(dest ...interface{}) error {
	return s.rows.Scan(append(append([]interface{}{}, s.prefix...), dest...)...)
}
