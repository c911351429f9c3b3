package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

const categoryColumns = `id, name, description, created_at`

// CategoryRepository stores the product categories shown in the catalog
// (bovinos, suínos, aves and so on).
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	c := &domain.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.Description, category.CreatedAt,
	)
	switch {
	case isUniqueViolation(err, "categories_name_key"):
		return ErrCategoryAlreadyExists
	case err != nil:
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// List returns every category ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// FindByName matches case-insensitively, so "bovinos" finds "Bovinos"
func (r *categoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.findOne(ctx, `LOWER(name) = LOWER($1)`, name)
}

func (r *categoryRepository) findOne(ctx context.Context, where string, arg any) (*domain.Category, error) {
	c, err := scanCategory(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE `+where, arg))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}
