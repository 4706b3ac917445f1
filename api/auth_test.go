package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	t.Setenv(envTestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	return NewAuth(nil, "noteboard", "https://issuer.example.com/")
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": "auth0|user-1",
		"aud": "noteboard",
		"iss": "https://issuer.example.com/",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func TestUserIDFromAuthHeader(t *testing.T) {
	auth := newTestAuth(t)
	header := "Bearer " + signToken(t, validClaims())

	userID, err := auth.UserIDFromAuthHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "auth0|user-1" {
		t.Fatalf("unexpected user id: %q", userID)
	}
}

func TestUserIDFromAuthHeaderRejections(t *testing.T) {
	auth := newTestAuth(t)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-2 * time.Hour).Unix()

	wrongAudience := validClaims()
	wrongAudience["aud"] = "someone-else"

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "https://evil.example.com/"

	noSub := validClaims()
	delete(noSub, "sub")

	cases := map[string]string{
		"expired token":  "Bearer " + signToken(t, expired),
		"wrong audience": "Bearer " + signToken(t, wrongAudience),
		"wrong issuer":   "Bearer " + signToken(t, wrongIssuer),
		"missing sub":    "Bearer " + signToken(t, noSub),
		"garbage token":  "Bearer not.a.jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := auth.UserIDFromAuthHeader(header); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	if _, err := bearerToken(""); err != errMissingAuthorization {
		t.Fatalf("expected missing header error, got %v", err)
	}

	bad := []string{
		"Bearer",
		"Bearer ",
		"Basic dXNlcjpwYXNz",
		"Bearer justonetoken",
		"Bearer a.b",
		"Bearer a.b.c.d",
	}
	for _, h := range bad {
		if _, err := bearerToken(h); err != errBadAuthorization {
			t.Fatalf("header %q: expected bad header error, got %v", h, err)
		}
	}

	token, err := bearerToken("Bearer a.b.c")
	if err != nil || token != "a.b.c" {
		t.Fatalf("expected token extraction, got %q, %v", token, err)
	}
}
