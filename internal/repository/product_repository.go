package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrUnknownCategory   = errors.New("category does not exist")
	ErrProductReferenced = errors.New("product is referenced by existing records")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.category_id, c.name, p.image_url,
	       p.stock, p.available, p.weight_amount, p.weight_unit, p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id
`

var validSortFields = map[string]string{
	"name":       "p.name",
	"price":      "p.price",
	"created_at": "p.created_at",
	"stock":      "p.stock",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var (
		weightAmount decimal.NullDecimal
		weightUnit   sql.NullString
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.CategoryID,
		&product.CategoryName,
		&product.ImageURL,
		&product.Stock,
		&product.Available,
		&weightAmount,
		&weightUnit,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if weightAmount.Valid && weightUnit.Valid {
		product.Weight = &domain.WeightPricing{Amount: weightAmount.Decimal, Unit: weightUnit.String}
	}

	return product, nil
}

func weightArgs(weight *domain.WeightPricing) (decimal.NullDecimal, sql.NullString) {
	if weight == nil {
		return decimal.NullDecimal{}, sql.NullString{}
	}
	return decimal.NewNullDecimal(weight.Amount), sql.NullString{String: weight.Unit, Valid: true}
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, category_id, image_url, stock, available,
		                      weight_amount, weight_unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	weightAmount, weightUnit := weightArgs(product.Weight)
	_, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.CategoryID,
		product.ImageURL,
		product.Stock,
		product.Available,
		weightAmount,
		weightUnit,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownCategory
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update replaces the editable attributes of a product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5,
		    image_url = $6, stock = $7, available = $8, weight_amount = $9, weight_unit = $10
		WHERE id = $1
	`

	weightAmount, weightUnit := weightArgs(product.Weight)
	result, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.CategoryID,
		product.ImageURL,
		product.Stock,
		product.Available,
		weightAmount,
		weightUnit,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownCategory
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// Delete removes a product
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductReferenced
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// FindByID retrieves a product by ID together with its category name
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(conn(ctx, r.db).QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products matching the filter with pagination and sorting
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	sortBy, ok := validSortFields[filter.SortBy]
	if !ok {
		sortBy = "p.created_at"
	}

	sortOrder := SortOrder(strings.ToUpper(filter.SortOrder))
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	conditions := []string{}
	args := []interface{}{}

	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, "%"+category+"%")
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		conditions = append(conditions, fmt.Sprintf("p.available = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	q := conn(ctx, r.db)

	countQuery := `SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id ` + whereClause
	var total int
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`%s %s ORDER BY %s %s, p.id LIMIT $%d OFFSET $%d`,
		productSelect, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// Search matches name or description case-insensitively
func (r *productRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return r.List(ctx, domain.ProductFilter{
		Search:   query,
		Page:     page,
		PageSize: pageSize,
	})
}

// DecrementStock subtracts quantity only while enough stock remains. The check
// and the write are one statement, so concurrent orders cannot oversell.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}

	q := conn(ctx, r.db)
	result, err := q.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		id, quantity,
	)
	if err != nil {
		if isCheckViolation(err) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

// SetAvailability toggles whether a product can be sold
func (r *productRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE products SET available = $2 WHERE id = $1`,
		id, available,
	)
	if err != nil {
		return fmt.Errorf("failed to set product availability: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// expectOneRow maps zero affected rows to notFound
func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
