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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository stores customer and admin accounts. Emails are unique and
// kept lower-case by the caller.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err, "users_email_key"):
		return ErrUserAlreadyExists
	case err != nil:
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepository) findOne(ctx context.Context, column string, value any) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find user by %s: %w", column, err)
	}
	return u, nil
}

// UpdateProfile writes name and phone and refreshes user.UpdatedAt.
// Email, password and role are left alone.
func (r *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.FirstName, u.LastName, u.Phone).Scan(&u.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrUserNotFound
	case err != nil:
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}
