package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The client never verifies signatures; it only reads claims the server
// already vouched for. Validation happens server-side on every request.
var parser = jwt.NewParser()

// IsExpired reports whether the credential's exp claim is in the past.
// Undecodable credentials and credentials without an exp claim count as
// expired (fail-closed).
func IsExpired(credential string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(credential, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return time.Now().After(claims.ExpiresAt.Time)
}

// Subject extracts the user identifier from the credential, trying the sub
// claim first and then the userId/user_id variants the backend has used.
func Subject(credential string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return "", err
	}
	for _, key := range []string{"sub", "userId", "user_id"} {
		v, ok := claims[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", s), nil
		}
	}
	return "", errors.New("no subject claim in credential")
}
