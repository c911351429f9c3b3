package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/pricing"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettingsInput holds the admin-editable store settings
type SettingsInput struct {
	StoreName           string
	Phone               string
	Email               string
	AddressLine         string
	DeliveryFee         decimal.Decimal
	FreeDeliveryMinimum decimal.Decimal
}

// SettingsService exposes store settings and delivery quotes
type SettingsService interface {
	Get(ctx context.Context) (*domain.StoreSettings, error)
	Update(ctx context.Context, in SettingsInput) (*domain.StoreSettings, error)
	Quote(ctx context.Context, subtotal decimal.Decimal, method domain.DeliveryMethod) (pricing.Quote, error)
}

type settingsService struct {
	settings repository.SettingsRepository
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(settings repository.SettingsRepository) SettingsService {
	return &settingsService{settings: settings}
}

// Get returns the stored settings or the defaults when none were saved
func (s *settingsService) Get(ctx context.Context) (*domain.StoreSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return domain.DefaultStoreSettings(), nil
		}
		return nil, err
	}
	return settings, nil
}

// Update overwrites the settings record, creating it on first use
func (s *settingsService) Update(ctx context.Context, in SettingsInput) (*domain.StoreSettings, error) {
	if in.DeliveryFee.IsNegative() || in.FreeDeliveryMinimum.IsNegative() {
		return nil, ErrInvalidSettings
	}

	now := time.Now()
	settings, err := s.settings.Get(ctx)
	switch {
	case errors.Is(err, repository.ErrSettingsNotFound):
		settings = &domain.StoreSettings{ID: uuid.New(), CreatedAt: now}
	case err != nil:
		return nil, err
	}

	settings.StoreName = strings.TrimSpace(in.StoreName)
	settings.Phone = strings.TrimSpace(in.Phone)
	settings.Email = strings.TrimSpace(in.Email)
	settings.AddressLine = strings.TrimSpace(in.AddressLine)
	settings.DeliveryFee = in.DeliveryFee.Round(2)
	settings.FreeDeliveryMinimum = in.FreeDeliveryMinimum.Round(2)
	settings.UpdatedAt = now

	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return settings, nil
}

// Quote prices delivery for a subtotal with the current settings
func (s *settingsService) Quote(ctx context.Context, subtotal decimal.Decimal, method domain.DeliveryMethod) (pricing.Quote, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.CalculateDeliveryFee(subtotal, method, pricing.FeeSettingsFrom(settings)), nil
}
