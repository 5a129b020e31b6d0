package pipeline

import (
	"context"
	"net/http"

	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/supabase"
)

// UserFetcher retrieves the user behind an access token from the auth
// provider.
type UserFetcher interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// RemoteSessionResolver resolves sessions against the auth provider's user
// endpoint. Used when the signing secret is not available locally; costs one
// upstream round trip per request.
type RemoteSessionResolver struct {
	auth UserFetcher
}

// NewRemoteSessionResolver creates a resolver over the given auth client.
func NewRemoteSessionResolver(auth UserFetcher) *RemoteSessionResolver {
	return &RemoteSessionResolver{auth: auth}
}

// Resolve verifies the caller's token upstream.
func (s *RemoteSessionResolver) Resolve(r *http.Request) (Identity, string, error) {
	token := bearerToken(r)
	if token == "" {
		return Identity{}, "", errors.Unauthenticated("")
	}

	user, err := s.auth.GetUser(r.Context(), token)
	if err != nil || user == nil || user.ID == "" {
		return Identity{}, "", errors.Unauthenticated("")
	}
	return Identity{Subject: user.ID, Email: user.Email}, token, nil
}
