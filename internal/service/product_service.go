package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput holds the admin-editable product attributes
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uuid.UUID
	ImageURL    string
	Stock       decimal.Decimal
	Available   bool
	Weight      *domain.WeightPricing
}

// ProductService defines catalog reads and admin maintenance
type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository) ProductService {
	return &productService{products: products, categories: categories}
}

func (s *productService) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	return s.products.List(ctx, filter)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Search matches name or description, ignoring case
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.products.Search(ctx, strings.TrimSpace(query), page, pageSize)
}

// Create adds a product to the catalog
func (s *productService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{ID: uuid.New(), CreatedAt: now}
	in.apply(product)
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	return s.products.FindByID(ctx, product.ID)
}

// Update replaces a product's attributes
func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(product)

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	return s.products.FindByID(ctx, id)
}

// Delete removes a product. A product still referenced elsewhere is marked
// unavailable instead.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrProductReferenced) {
		return s.products.SetAvailability(ctx, id, false)
	}
	return err
}

func (s *productService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// CreateCategory adds a category; names are unique ignoring case
func (s *productService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidProduct
	}

	if _, err := s.categories.FindByName(ctx, name); err == nil {
		return nil, repository.ErrCategoryAlreadyExists
	} else if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, err
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.CategoryID == uuid.Nil {
		return ErrInvalidProduct
	}
	if in.Price.IsNegative() || in.Stock.IsNegative() {
		return ErrInvalidProduct
	}
	if in.Weight != nil && (!in.Weight.Amount.IsPositive() || strings.TrimSpace(in.Weight.Unit) == "") {
		return ErrInvalidProduct
	}
	return nil
}

func (in ProductInput) apply(product *domain.Product) {
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.Price = in.Price.Round(2)
	product.CategoryID = in.CategoryID
	product.ImageURL = strings.TrimSpace(in.ImageURL)
	product.Stock = in.Stock
	product.Available = in.Available
	product.Weight = in.Weight
}
