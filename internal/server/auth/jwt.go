// Package auth extracts the authenticated user identity from bearer tokens
// issued by the external auth service. The core trusts this identity and
// performs no credential checks of its own.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/JoaoMarques95/dinners/internal/common"
)

// Claims carries the registered claims plus the user ID set by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// UserIDFromToken verifies the token signature against secretKey and returns
// the embedded user ID. Invalid or expired tokens yield ErrInvalidToken.
func UserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
