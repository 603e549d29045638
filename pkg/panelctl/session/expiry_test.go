package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestExpiry(t *testing.T) {
	expires := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	got, err := Expiry(token)
	require.NoError(t, err)
	require.True(t, got.Equal(expires))
}

func TestExpiryNoClaim(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{Subject: "admin"})

	_, err := Expiry(token)
	require.Error(t, err)
}

func TestExpiryGarbage(t *testing.T) {
	_, err := Expiry("not-a-jwt")
	require.Error(t, err)
}

func TestExpiresWithin(t *testing.T) {
	soon := signedToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Second)),
	})
	later := signedToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	require.True(t, ExpiresWithin(soon, time.Minute))
	require.False(t, ExpiresWithin(later, time.Minute))

	// Unparseable tokens count as expiring.
	require.True(t, ExpiresWithin("garbage", time.Minute))
}
