package session

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether a persisted JWT has already expired.
// The token is parsed without verification: the backend is the authority on
// validity, this only avoids hydrating a session the backend will reject.
// Opaque (non-JWT) tokens and tokens without an exp claim pass through.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
