package pipeline

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/praxisos/praxis-server/internal/errors"
)

// AccessTokenCookie is the session cookie set by the web frontend.
const AccessTokenCookie = "sb-access-token"

// Identity is the resolved caller, discarded at response time.
type Identity struct {
	Subject string
	Email   string
}

// SessionResolver turns request credentials into a caller identity.
// Implementations must return an errors.ServiceError with code
// UNAUTHENTICATED for every resolution failure.
type SessionResolver interface {
	Resolve(r *http.Request) (Identity, string, error)
}

// accessClaims are the claims of an access token issued by the auth
// provider.
type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTSessionResolver verifies HS256 access tokens locally against the
// project's JWT secret.
type JWTSessionResolver struct {
	secret []byte
}

// NewJWTSessionResolver creates a resolver for the given signing secret.
func NewJWTSessionResolver(secret string) *JWTSessionResolver {
	return &JWTSessionResolver{secret: []byte(secret)}
}

// Resolve extracts and verifies the caller's access token. It returns the
// identity together with the raw token so the data layer can issue
// RLS-scoped requests on the caller's behalf.
func (s *JWTSessionResolver) Resolve(r *http.Request) (Identity, string, error) {
	token := bearerToken(r)
	if token == "" {
		return Identity{}, "", errors.Unauthenticated("")
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, "", errors.Unauthenticated("")
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || claims.Subject == "" {
		return Identity{}, "", errors.Unauthenticated("")
	}

	return Identity{Subject: claims.Subject, Email: claims.Email}, token, nil
}

// bearerToken reads the access token from the Authorization header or the
// session cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}
