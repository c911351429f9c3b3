package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"butcher-shop/internal/config"
	"butcher-shop/internal/domain"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 10

	DefaultAccessTokenExpiration  = 15 * time.Minute
	DefaultRefreshTokenExpiration = 7 * 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserService covers accounts and sessions. A session is a short-lived JWT
// access token plus an opaque refresh token stored server side.
type UserService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *domain.User, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.User, error)
}

type ProfileInput struct {
	FirstName string
	LastName  string
	Phone     string
}

type userService struct {
	users      repository.UserRepository
	sessions   repository.RefreshTokenRepository
	access     accessTokens
	refreshTTL time.Duration
	now        func() time.Time
}

// NewUserService falls back to the default lifetimes when cfg leaves them at zero
func NewUserService(users repository.UserRepository, sessions repository.RefreshTokenRepository, cfg config.JWTConfig) UserService {
	accessTTL := time.Duration(cfg.AccessExpiry) * time.Minute
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenExpiration
	}
	refreshTTL := time.Duration(cfg.RefreshExpiry) * 24 * time.Hour
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenExpiration
	}

	return &userService{
		users:      users,
		sessions:   sessions,
		access:     newAccessTokens(cfg.Secret, accessTTL),
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error) {
	email = normalizeEmail(email)

	switch _, err := s.users.FindByEmail(ctx, email); {
	case err == nil:
		return nil, repository.ErrUserAlreadyExists
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still catches a concurrent registration of the same email.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	return user, nil
}

// Login answers ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *userService) Login(ctx context.Context, email, password string) (string, string, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return "", "", nil, ErrInvalidCredentials
	case err != nil:
		return "", "", nil, fmt.Errorf("failed to look up email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	now := s.now()
	accessToken, err := s.access.sign(user, now)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.issueRefreshToken(ctx, user.ID, now)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// Logout revokes the refresh token; an unknown token counts as logged out
func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	err := s.sessions.Revoke(ctx, refreshToken)
	if err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RefreshToken signs a new access token carrying the user's current role
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	session, err := s.sessions.FindByToken(ctx, refreshToken)
	switch {
	case errors.Is(err, repository.ErrRefreshTokenNotFound), errors.Is(err, repository.ErrRefreshTokenRevoked):
		return "", ErrInvalidToken
	case err != nil:
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if !now.Before(session.ExpiresAt) {
		return "", ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load session owner: %w", err)
	}

	return s.access.sign(user, now)
}

func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	return s.access.verify(tokenString)
}

func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, err
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Phone = strings.TrimSpace(in.Phone)

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// issueRefreshToken stores a new opaque token after dropping the user's
// expired or revoked ones
func (s *userService) issueRefreshToken(ctx context.Context, userID uuid.UUID, now time.Time) (string, error) {
	if _, err := s.sessions.DeleteExpired(ctx, userID, now); err != nil {
		return "", err
	}

	session := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.NewString() + uuid.NewString(),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return session.Token, nil
}
