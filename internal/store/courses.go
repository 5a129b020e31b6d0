package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/praxisos/praxis-server/internal/supabase"
)

// Typed publish failures. The database procedure signals them via dedicated
// SQLSTATEs so the handler never pattern-matches error message text.
var (
	// ErrCourseNotOwned: caller does not own the course (or it does not
	// exist; row-level security makes the two indistinguishable).
	ErrCourseNotOwned = stderrors.New("course not owned by caller")
	// ErrCourseNoLessons: the course has no lessons and cannot be
	// published.
	ErrCourseNoLessons = stderrors.New("course has no lessons")
)

// SQLSTATEs raised by kurs_veroeffentlichen.
const (
	sqlstateNotOwned  = "PX403"
	sqlstateNoLessons = "PX422"
)

// PublishResult is the outcome of a successful publish.
type PublishResult struct {
	Version int    `json:"version"`
	Status  string `json:"status"`
}

// ListCourses returns the courses visible to the caller.
func (s *Store) ListCourses(ctx context.Context, token string) ([]Course, error) {
	var rows []Course
	err := s.db.From("kurse").
		Select("*").
		Order("titel").
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if rows == nil {
		rows = []Course{}
	}
	return rows, nil
}

// GetCourse returns one course, or nil when it is not visible to the caller.
func (s *Store) GetCourse(ctx context.Context, id, token string) (*Course, error) {
	var row Course
	err := s.db.From("kurse").
		Select("*").
		Eq("id", id).
		Single().
		WithToken(token).
		ExecuteInto(ctx, &row)
	if err != nil {
		if supabase.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &row, nil
}

// ArchiveCourse archives a course. The write is conditioned on the course
// not already being archived, so a repeat call matches zero rows and returns
// false instead of re-applying the transition.
func (s *Store) ArchiveCourse(ctx context.Context, id, token string) (bool, error) {
	var rows []Course
	err := s.db.From("kurse").
		Update(map[string]any{
			"status":        CourseArchived,
			"archiviert_am": time.Now().UTC().Format(time.RFC3339),
		}).
		Eq("id", id).
		Neq("status", CourseArchived).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return false, fmt.Errorf("archive course: %w", err)
	}
	return len(rows) > 0, nil
}

// PublishCourse invokes the server-side publish procedure under the caller's
// row-level security context and returns the new version and status.
func (s *Store) PublishCourse(ctx context.Context, id, token string) (*PublishResult, error) {
	raw, err := s.db.RPC(ctx, "kurs_veroeffentlichen", map[string]string{"p_kurs_id": id}, token)
	if err != nil {
		var apiErr *supabase.Error
		if stderrors.As(err, &apiErr) {
			switch apiErr.Code {
			case sqlstateNotOwned:
				return nil, ErrCourseNotOwned
			case sqlstateNoLessons:
				return nil, ErrCourseNoLessons
			}
		}
		return nil, fmt.Errorf("publish course: %w", err)
	}

	parsed := gjson.ParseBytes(raw)
	return &PublishResult{
		Version: int(parsed.Get("version").Int()),
		Status:  parsed.Get("status").String(),
	}, nil
}
