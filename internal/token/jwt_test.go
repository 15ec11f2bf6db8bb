package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIsExpired_FailClosed(t *testing.T) {
	t.Parallel()

	// anything undecodable counts as expired
	for _, cred := range []string{
		"",
		"garbage",
		"a.b",
		"x.y.z",
		"eyJhbGciOiJIUzI1NiJ9.not-base64!.sig",
	} {
		if !IsExpired(cred) {
			t.Fatalf("IsExpired(%q)=false, want true", cred)
		}
	}
}

func TestIsExpired_MissingExpClaim(t *testing.T) {
	cred := mint(t, jwt.MapClaims{"sub": "u1"})
	if !IsExpired(cred) {
		t.Fatalf("token without exp: want expired")
	}
}

func TestIsExpired_PastAndFuture(t *testing.T) {
	past := mint(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	if !IsExpired(past) {
		t.Fatalf("past exp: want expired")
	}
	future := mint(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	if IsExpired(future) {
		t.Fatalf("future exp: want not expired")
	}
}

func TestSubject_ClaimVariants(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"sub", jwt.MapClaims{"sub": "abc"}, "abc"},
		{"userId", jwt.MapClaims{"userId": "u-7"}, "u-7"},
		{"user_id", jwt.MapClaims{"user_id": "u-8"}, "u-8"},
		{"numeric", jwt.MapClaims{"sub": float64(42)}, "42"},
		{"prefers sub", jwt.MapClaims{"sub": "a", "user_id": "b"}, "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Subject(mint(t, tc.claims))
			if err != nil || got != tc.want {
				t.Fatalf("Subject=%q err=%v, want %q", got, err, tc.want)
			}
		})
	}
}

func TestSubject_Missing(t *testing.T) {
	if _, err := Subject(mint(t, jwt.MapClaims{"exp": time.Now().Unix()})); err == nil {
		t.Fatalf("want error when no subject claim")
	}
	if _, err := Subject("garbage"); err == nil {
		t.Fatalf("want error for undecodable credential")
	}
}
