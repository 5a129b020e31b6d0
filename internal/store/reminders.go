package store

import (
	"context"
	"fmt"
	"time"

	"github.com/praxisos/praxis-server/internal/supabase"
)

// DueReminders returns unsent reminders due at or before now. Privileged;
// only the reminder dispatcher calls this.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	var rows []Reminder
	err := s.db.From("erinnerungen").
		Select("*").
		Filter("faellig_am", supabase.OpLte, now.UTC().Format(time.RFC3339)).
		Is("gesendet_am", "null").
		Order("faellig_am").
		WithServiceRole().
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load due reminders: %w", err)
	}
	if rows == nil {
		rows = []Reminder{}
	}
	return rows, nil
}

// MarkReminderSent stamps a reminder as dispatched.
func (s *Store) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.From("erinnerungen").
		Update(map[string]any{"gesendet_am": at.UTC().Format(time.RFC3339)}).
		Eq("id", id).
		WithServiceRole().
		Execute(ctx)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
