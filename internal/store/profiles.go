package store

import (
	"context"
	"fmt"

	"github.com/praxisos/praxis-server/internal/pipeline"
)

// RoleOf resolves the stored role of an authenticated subject. The lookup
// runs with the service role so a caller can never shadow their own profile
// row; unknown role strings are rejected.
func (s *Store) RoleOf(ctx context.Context, subject string) (pipeline.Role, error) {
	var row struct {
		Rolle string `json:"rolle"`
	}
	err := s.db.From("profiles").
		Select("rolle").
		Eq("id", subject).
		Single().
		WithServiceRole().
		ExecuteInto(ctx, &row)
	if err != nil {
		return "", fmt.Errorf("load profile role: %w", err)
	}

	role, ok := pipeline.ParseRole(row.Rolle)
	if !ok {
		return "", fmt.Errorf("unknown role %q for subject", row.Rolle)
	}
	return role, nil
}
