package store

import (
	"context"
	"fmt"
	"time"
)

// EnrollmentStatusPatch is the derived-field update for a status transition.
// Timestamps are pointers so cleared fields serialize as explicit nulls.
type EnrollmentStatusPatch struct {
	Status          string     `json:"status"`
	AbgeschlossenAm *time.Time `json:"abgeschlossen_am"`
	AbgebrochenAm   *time.Time `json:"abgebrochen_am"`
}

// DeriveEnrollmentPatch maps a validated status value onto its derived
// fields. Total and deterministic: completion and cancellation stamps are
// mutually exclusive, and reactivation clears both.
func DeriveEnrollmentPatch(status string, now time.Time) EnrollmentStatusPatch {
	patch := EnrollmentStatusPatch{Status: status}
	switch status {
	case EnrollmentCompleted:
		patch.AbgeschlossenAm = &now
	case EnrollmentCancelled:
		patch.AbgebrochenAm = &now
	}
	return patch
}

// UpdateEnrollmentStatus applies a status transition to one enrollment of
// the given course. Returns nil when no row matched (unknown enrollment, or
// not visible to the caller).
func (s *Store) UpdateEnrollmentStatus(ctx context.Context, kursID, enrollmentID string, patch EnrollmentStatusPatch, token string) (*Enrollment, error) {
	var rows []Enrollment
	err := s.db.From("kurs_anmeldungen").
		Update(patch).
		Eq("id", enrollmentID).
		Eq("kurs_id", kursID).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
