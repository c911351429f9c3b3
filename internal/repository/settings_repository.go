package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"butcher-shop/internal/domain"
)

var (
	ErrSettingsNotFound = errors.New("store settings not found")
)

// SettingsRepository reads and writes the single store settings record
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.StoreSettings, error)
	Upsert(ctx context.Context, settings *domain.StoreSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the oldest settings record
func (r *settingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	query := `
		SELECT id, store_name, phone, email, address_line, delivery_fee, free_delivery_minimum, created_at, updated_at
		FROM store_settings
		ORDER BY created_at ASC
		LIMIT 1
	`

	settings := &domain.StoreSettings{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&settings.ID,
		&settings.StoreName,
		&settings.Phone,
		&settings.Email,
		&settings.AddressLine,
		&settings.DeliveryFee,
		&settings.FreeDeliveryMinimum,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get store settings: %w", err)
	}

	return settings, nil
}

// Upsert inserts the record or overwrites it when the ID already exists
func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.StoreSettings) error {
	query := `
		INSERT INTO store_settings (id, store_name, phone, email, address_line, delivery_fee,
		                            free_delivery_minimum, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET store_name = EXCLUDED.store_name,
		    phone = EXCLUDED.phone,
		    email = EXCLUDED.email,
		    address_line = EXCLUDED.address_line,
		    delivery_fee = EXCLUDED.delivery_fee,
		    free_delivery_minimum = EXCLUDED.free_delivery_minimum,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		settings.ID,
		settings.StoreName,
		settings.Phone,
		settings.Email,
		settings.AddressLine,
		settings.DeliveryFee,
		settings.FreeDeliveryMinimum,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save store settings: %w", err)
	}

	return nil
}
