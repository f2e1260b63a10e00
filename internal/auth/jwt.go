package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/models"
)

var (
	ErrMissingToken  = errors.New("missing access token")
	ErrInvalidToken  = errors.New("invalid access token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims are the access token claims issued by the hosted auth service.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenParser turns access tokens into identities.
type TokenParser struct {
	secret   []byte
	audience string
}

// NewTokenParser creates a parser for HS256 tokens signed with secret.
// audience is optional; when set the aud claim must contain it.
func NewTokenParser(secret []byte, audience string) (*TokenParser, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT secret not provided")
	}
	return &TokenParser{secret: secret, audience: audience}, nil
}

// Parse validates the token and returns the identity it was issued for.
func (p *TokenParser) Parse(token string) (models.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return models.Identity{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		log.Debug().Err(err).Msg("JWT parse error")
		return models.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return models.Identity{}, ErrInvalidClaims
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: subject is not a UUID", ErrInvalidClaims)
	}

	return models.Identity{ID: id, Email: claims.Email}, nil
}
