package store

import (
	"context"
	"fmt"
)

// OwnPatient resolves the caller's own patient record. It tries the account
// link first and falls back to an email match for records created before the
// patient had an account. Returns nil when no record matches.
func (s *Store) OwnPatient(ctx context.Context, subject, email, token string) (*Patient, error) {
	var rows []Patient
	err := s.db.From("patienten").
		Select("*").
		Eq("user_id", subject).
		Limit(1).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load patient by user: %w", err)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	if email == "" {
		return nil, nil
	}

	rows = nil
	err = s.db.From("patienten").
		Select("*").
		Eq("email", email).
		Is("user_id", "null").
		Limit(1).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load patient by email: %w", err)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return nil, nil
}
