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
	ErrAddressNotFound = errors.New("address not found")
)

// AddressRepository defines the interface for address data access. Every
// lookup is scoped to the owning user.
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

type addressRepository struct {
	db *sql.DB
	tx TxManager
}

// NewAddressRepository creates a new instance of AddressRepository
func NewAddressRepository(db *sql.DB, tx TxManager) AddressRepository {
	return &addressRepository{db: db, tx: tx}
}

const addressColumns = `id, user_id, label, street, number, complement, neighborhood, city, state,
	country, postal_code, is_default, created_at, updated_at`

func scanAddress(row rowScanner) (*domain.Address, error) {
	address := &domain.Address{}
	err := row.Scan(
		&address.ID,
		&address.UserID,
		&address.Label,
		&address.Street,
		&address.Number,
		&address.Complement,
		&address.Neighborhood,
		&address.City,
		&address.State,
		&address.Country,
		&address.PostalCode,
		&address.IsDefault,
		&address.CreatedAt,
		&address.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Create inserts an address. A default address first clears the user's
// previous default in the same transaction.
func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if address.IsDefault {
			if err := r.clearDefault(ctx, address.UserID); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO addresses (` + addressColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`

		_, err := conn(ctx, r.db).ExecContext(
			ctx,
			query,
			address.ID,
			address.UserID,
			address.Label,
			address.Street,
			address.Number,
			address.Complement,
			address.Neighborhood,
			address.City,
			address.State,
			address.Country,
			address.PostalCode,
			address.IsDefault,
			address.CreatedAt,
			address.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}

		return nil
	})
}

// Update rewrites the postal fields of an address owned by the user
func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if address.IsDefault {
			if err := r.clearDefault(ctx, address.UserID); err != nil {
				return err
			}
		}

		query := `
			UPDATE addresses
			SET label = $3, street = $4, number = $5, complement = $6, neighborhood = $7,
			    city = $8, state = $9, country = $10, postal_code = $11, is_default = $12
			WHERE id = $1 AND user_id = $2
			RETURNING updated_at
		`

		err := conn(ctx, r.db).QueryRowContext(
			ctx,
			query,
			address.ID,
			address.UserID,
			address.Label,
			address.Street,
			address.Number,
			address.Complement,
			address.Neighborhood,
			address.City,
			address.State,
			address.Country,
			address.PostalCode,
			address.IsDefault,
		).Scan(&address.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("failed to update address: %w", err)
		}

		return nil
	})
}

// Delete removes an address owned by the user
func (r *addressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	return expectOneRow(result, ErrAddressNotFound)
}

// FindByID retrieves an address owned by the user
func (r *addressRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

	address, err := scanAddress(conn(ctx, r.db).QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find address by ID: %w", err)
	}

	return address, nil
}

// ListByUser returns the user's addresses, default first
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at ASC
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*domain.Address{}
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// CountByUser returns how many addresses the user has saved
func (r *addressRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return count, nil
}

// SetDefault makes one address the user's default and clears any other
func (r *addressRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := r.clearDefault(ctx, userID); err != nil {
			return err
		}

		result, err := conn(ctx, r.db).ExecContext(ctx,
			`UPDATE addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}

		return expectOneRow(result, ErrAddressNotFound)
	})
}

func (r *addressRepository) clearDefault(ctx context.Context, userID uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}
