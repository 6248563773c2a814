package testutil

import (
	"errors"

	"github.com/google/uuid"

	"landledger/pkg/platform/middleware/auth"
)

// Tokens is a JWT validator for handler tests that maps opaque bearer
// tokens to claims.
type Tokens map[string]*auth.JWTClaims

// Add registers token for a fresh user with role and returns the user id.
func (t Tokens) Add(token, role string) string {
	userID := uuid.NewString()
	t[token] = &auth.JWTClaims{UserID: userID, Role: role}
	return userID
}

func (t Tokens) ValidateToken(token string) (*auth.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, errors.New("unknown token")
}
