package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JoaoMarques95/dinners/internal/common"
)

func signToken(t *testing.T, userID string, key []byte, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestUserIDFromToken(t *testing.T) {
	key := []byte("k")
	token := signToken(t, "u1", key, time.Hour)

	userID, err := UserIDFromToken(token, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("want u1, got %q", userID)
	}
}

func TestUserIDFromToken_WrongKey(t *testing.T) {
	token := signToken(t, "u1", []byte("k"), time.Hour)

	_, err := UserIDFromToken(token, []byte("other"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestUserIDFromToken_Expired(t *testing.T) {
	key := []byte("k")
	token := signToken(t, "u1", key, -time.Minute)

	_, err := UserIDFromToken(token, key)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestUserIDFromToken_Garbage(t *testing.T) {
	_, err := UserIDFromToken("not-a-token", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
