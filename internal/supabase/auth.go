package supabase

import (
	"context"
	"encoding/json"
	"fmt"
)

// AuthClient handles auth API operations.
type AuthClient struct {
	client *Client
}

// GetUser retrieves the user behind an access token. Used as the remote
// fallback when local token verification is not configured.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	respBody, statusCode, err := a.client.requestWithToken(ctx, "GET", a.client.authURL+"/user", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &user, nil
}
