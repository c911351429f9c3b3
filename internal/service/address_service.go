package service

import (
	"context"
	"fmt"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
)

// AddressInput holds the fields a user submits for an address
type AddressInput struct {
	CustomerData
	IsDefault bool
}

// AddressService defines the interface for managing a user's addresses
type AddressService interface {
	Create(ctx context.Context, userID uuid.UUID, in AddressInput) (*domain.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, in AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressService struct {
	tx        repository.TxManager
	addresses repository.AddressRepository
}

// NewAddressService creates a new instance of AddressService
func NewAddressService(tx repository.TxManager, addresses repository.AddressRepository) AddressService {
	return &addressService{tx: tx, addresses: addresses}
}

// Create stores a new address. The first address of a user becomes the default.
func (s *addressService) Create(ctx context.Context, userID uuid.UUID, in AddressInput) (*domain.Address, error) {
	if !in.complete() {
		return nil, ErrAddressRequired
	}

	address := in.toAddress(userID)
	address.ID = uuid.New()
	address.IsDefault = in.IsDefault
	address.CreatedAt = time.Now()
	address.UpdatedAt = address.CreatedAt

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		count, err := s.addresses.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}
		return s.addresses.Create(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	return address, nil
}

// Update rewrites an address owned by the user
func (s *addressService) Update(ctx context.Context, userID, addressID uuid.UUID, in AddressInput) (*domain.Address, error) {
	if !in.complete() {
		return nil, ErrAddressRequired
	}

	current, err := s.addresses.FindByID(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	address := in.toAddress(userID)
	address.ID = current.ID
	address.CreatedAt = current.CreatedAt
	address.UpdatedAt = time.Now()
	// An update never leaves the user without a default.
	address.IsDefault = in.IsDefault || current.IsDefault

	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, err
	}

	return address, nil
}

// Delete removes an address owned by the user
func (s *addressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.addresses.Delete(ctx, userID, addressID)
}

// List returns the user's addresses, default first
func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// SetDefault makes the address the user's only default
func (s *addressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.addresses.SetDefault(ctx, userID, addressID)
}

