package pipeline

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/praxisos/praxis-server/internal/errors"
)

const testSigningSecret = "unit-test-signing-secret"

func signedToken(t *testing.T, secret, subject, email string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"exp":   time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionResolverBearerHeader(t *testing.T) {
	resolver := NewJWTSessionResolver(testSigningSecret)

	raw := signedToken(t, testSigningSecret, "user-1", "p@example.de", time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/courses", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	ident, token, err := resolver.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if ident.Subject != "user-1" || ident.Email != "p@example.de" {
		t.Fatalf("identity = %+v", ident)
	}
	if token != raw {
		t.Fatal("raw token not passed through")
	}
}

func TestSessionResolverCookieFallback(t *testing.T) {
	resolver := NewJWTSessionResolver(testSigningSecret)

	raw := signedToken(t, testSigningSecret, "user-2", "", time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/courses", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: raw})

	ident, _, err := resolver.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if ident.Subject != "user-2" {
		t.Fatalf("subject = %q", ident.Subject)
	}
}

func TestSessionResolverRejections(t *testing.T) {
	resolver := NewJWTSessionResolver(testSigningSecret)

	expired := signedToken(t, testSigningSecret, "user-1", "", -time.Minute)
	wrongSecret := signedToken(t, "someone-elses-secret", "user-1", "", time.Hour)
	noSubject := signedToken(t, testSigningSecret, "", "", time.Hour)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone,
		jwt.MapClaims{"sub": "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") }},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }},
		{"wrong secret", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongSecret) }},
		{"alg none", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+unsigned) }},
		{"missing subject", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+noSubject) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/courses", nil)
			tt.setup(r)

			_, _, err := resolver.Resolve(r)
			if !errors.IsCode(err, errors.CodeUnauthenticated) {
				t.Fatalf("Resolve error = %v, want unauthenticated", err)
			}
		})
	}
}
