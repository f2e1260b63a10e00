package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/contacerta/contacerta/internal/models"
)

// IssueToken creates an HS256 access token for identity. Used for local
// development and tests; production tokens come from the hosted auth service.
func IssueToken(secret []byte, identity models.Identity, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "contacerta",
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
