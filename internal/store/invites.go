package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/praxisos/praxis-server/internal/supabase"
)

// HashInviteToken hashes a raw invite token for storage and lookup. Raw
// tokens never touch the store.
func HashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// InviteByTokenHash loads an invite by token hash. Invites are pre-auth
// resources, so the lookup runs with the service role. Returns nil when no
// invite matches.
func (s *Store) InviteByTokenHash(ctx context.Context, tokenHash string) (*Invite, error) {
	var row Invite
	err := s.db.From("patient_einladungen").
		Select("*").
		Eq("token_hash", tokenHash).
		Single().
		WithServiceRole().
		ExecuteInto(ctx, &row)
	if err != nil {
		if supabase.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load invite: %w", err)
	}
	return &row, nil
}

// ConsumeInvite marks an invite as used. The write is conditioned on the
// invite being unused; a second consume matches zero rows and returns false.
func (s *Store) ConsumeInvite(ctx context.Context, tokenHash string) (*Invite, bool, error) {
	var rows []Invite
	err := s.db.From("patient_einladungen").
		Update(map[string]any{
			"verwendet_am": time.Now().UTC().Format(time.RFC3339),
		}).
		Eq("token_hash", tokenHash).
		Is("verwendet_am", "null").
		WithServiceRole().
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, false, fmt.Errorf("consume invite: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return &rows[0], true, nil
}
