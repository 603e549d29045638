package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Expiry returns the exp claim of an access token without verifying the
// signature. Verification is the server's job; the client only needs the
// timestamp to decide whether a refresh is worth attempting up front.
func Expiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// ExpiresWithin reports whether the token expires inside the given leeway.
// Tokens that cannot be parsed are treated as expiring, so the caller
// refreshes rather than sending a request that is guaranteed a 401.
func ExpiresWithin(token string, leeway time.Duration) bool {
	expiry, err := Expiry(token)
	if err != nil {
		return true
	}
	return time.Until(expiry) <= leeway
}
