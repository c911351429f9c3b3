package service

import (
	"errors"
	"fmt"
	"time"

	"butcher-shop/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims is the payload of an access token. The role is read by the admin
// guard without another database round trip.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// accessTokens signs and verifies HS256 access tokens
type accessTokens struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func newAccessTokens(secret string, ttl time.Duration) accessTokens {
	return accessTokens{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuedAt()),
	}
}

func (a accessTokens) sign(user *domain.User, now time.Time) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a accessTokens) verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !token.Valid:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
