package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := NewJWTService("shared-secret")
	claims := JWTClaims{
		UserID: "user-1",
		Email:  "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signTestToken(t, "shared-secret", claims)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTService("shared-secret")
	token := signTestToken(t, "other-secret", JWTClaims{UserID: "user-1"})

	_, err := svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("shared-secret")
	claims := JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := signTestToken(t, "shared-secret", claims)

	_, err := svc.ValidateToken(token)
	assert.Error(t, err)
}
