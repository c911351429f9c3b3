package service

import (
	"context"
	"errors"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is a product and quantity pair sent by the browser cart
type CartLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// CartService keeps the server copy of a user's cart
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, line CartLine) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, line CartLine) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error)
	Replace(ctx context.Context, userID uuid.UUID, lines []CartLine) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cart     repository.CartRepository
	products repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cart repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{cart: cart, products: products}
}

// Get returns the cart with its derived totals
func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Cart{UserID: userID, Items: items}, nil
}

// AddItem puts a product in the cart or increases its quantity
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, line CartLine) (*domain.Cart, error) {
	item, err := s.snapshot(ctx, userID, line)
	if err != nil {
		return nil, err
	}

	if err := s.cart.Add(ctx, item); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, line CartLine) (*domain.Cart, error) {
	if !line.Quantity.IsPositive() {
		return s.RemoveItem(ctx, userID, line.ProductID)
	}

	if err := s.cart.UpdateQuantity(ctx, userID, line.ProductID, line.Quantity); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// RemoveItem drops a product from the cart
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	if err := s.cart.Remove(ctx, userID, productID); err != nil && !errors.Is(err, repository.ErrCartItemNotFound) {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Replace reconciles the server cart with the browser's copy. Products that
// no longer exist or are unavailable are dropped.
func (s *cartService) Replace(ctx context.Context, userID uuid.UUID, lines []CartLine) (*domain.Cart, error) {
	items := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			continue
		}

		item, err := s.snapshot(ctx, userID, line)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, ErrProductUnavailable) {
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}

	if err := s.cart.Replace(ctx, userID, items); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Clear empties the cart
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cart.ClearByUser(ctx, userID)
}

// snapshot copies the product's current name, category and price onto a cart line
func (s *cartService) snapshot(ctx context.Context, userID uuid.UUID, line CartLine) (*domain.CartItem, error) {
	if !line.Quantity.IsPositive() {
		return nil, repository.ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, ErrProductUnavailable
	}

	now := time.Now()
	return &domain.CartItem{
		ID:          uuid.New(),
		UserID:      userID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Category:    product.CategoryName,
		Quantity:    line.Quantity,
		Price:       product.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
