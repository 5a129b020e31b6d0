package pipeline

import (
	"context"

	"github.com/praxisos/praxis-server/internal/errors"
)

// ProfileDirectory resolves the stored role of an authenticated subject.
type ProfileDirectory interface {
	RoleOf(ctx context.Context, subject string) (Role, error)
}

// RoleGate checks an identity's role against an operation's allow-list.
// A missing or unreadable role record fails closed: the caller is denied,
// never defaulted to an elevated role.
type RoleGate struct {
	profiles ProfileDirectory
}

// NewRoleGate creates a gate over the given profile directory.
func NewRoleGate(profiles ProfileDirectory) *RoleGate {
	return &RoleGate{profiles: profiles}
}

// Check resolves the caller's role and tests membership in allowed. An empty
// allow-set admits any authenticated caller without touching the profile
// store; such operations must scope their data access via RLS or an
// ownership predicate instead.
func (g *RoleGate) Check(ctx context.Context, ident Identity, allowed RoleSet) (Role, error) {
	if len(allowed) == 0 {
		return "", nil
	}

	role, err := g.profiles.RoleOf(ctx, ident.Subject)
	if err != nil {
		return "", errors.Forbidden("")
	}
	if !allowed.Contains(role) {
		return "", errors.Forbidden("")
	}
	return role, nil
}
