package service

import (
	"context"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
)

// FavoriteService manages a user's favorite products
type FavoriteService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error)
}

type favoriteService struct {
	favorites repository.FavoriteRepository
}

// NewFavoriteService creates a new instance of FavoriteService
func NewFavoriteService(favorites repository.FavoriteRepository) FavoriteService {
	return &favoriteService{favorites: favorites}
}

func (s *favoriteService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	return s.favorites.Add(ctx, userID, productID)
}

func (s *favoriteService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.favorites.Remove(ctx, userID, productID)
}

func (s *favoriteService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}
