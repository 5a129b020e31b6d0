// Package store holds the repositories over the hosted relational store.
// Every method issues exactly one logical operation. Caller-scoped methods
// take the caller's access token so row-level security applies; only
// background components use the privileged service-role variants.
package store

import (
	"time"

	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/supabase"
)

// Store bundles the repositories.
type Store struct {
	db     *supabase.DatabaseClient
	logger *logging.Logger
}

// New creates the store over a configured client.
func New(client *supabase.Client, logger *logging.Logger) *Store {
	return &Store{db: client.Database(), logger: logger}
}

// Patient is a patient record. UserID is nil for records created before the
// patient had an account.
type Patient struct {
	ID           string     `json:"id"`
	UserID       *string    `json:"user_id"`
	Vorname      string     `json:"vorname"`
	Nachname     string     `json:"nachname"`
	Email        string     `json:"email"`
	Geburtsdatum *string    `json:"geburtsdatum,omitempty"`
	ArchiviertAm *time.Time `json:"archiviert_am,omitempty"`
}

// Course states.
const (
	CourseDraft     = "entwurf"
	CoursePublished = "veroeffentlicht"
	CourseArchived  = "archiviert"
)

// Course is a course row.
type Course struct {
	ID           string     `json:"id"`
	BesitzerID   string     `json:"besitzer_id"`
	Titel        string     `json:"titel"`
	Beschreibung string     `json:"beschreibung,omitempty"`
	Status       string     `json:"status"`
	Version      int        `json:"version"`
	ArchiviertAm *time.Time `json:"archiviert_am,omitempty"`
}

// Enrollment states.
const (
	EnrollmentActive    = "aktiv"
	EnrollmentCompleted = "abgeschlossen"
	EnrollmentCancelled = "abgebrochen"
)

// Enrollment is a course enrollment row.
type Enrollment struct {
	ID              string     `json:"id"`
	KursID          string     `json:"kurs_id"`
	PatientID       string     `json:"patient_id"`
	Status          string     `json:"status"`
	AbgeschlossenAm *time.Time `json:"abgeschlossen_am"`
	AbgebrochenAm   *time.Time `json:"abgebrochen_am"`
}

// Invite is a single-use registration invite. The raw token is never stored.
type Invite struct {
	ID          string     `json:"id"`
	TokenHash   string     `json:"token_hash"`
	Vorname     string     `json:"vorname"`
	Nachname    string     `json:"nachname"`
	Email       string     `json:"email"`
	VerwendetAm *time.Time `json:"verwendet_am"`
	ErstelltAm  time.Time  `json:"erstellt_am"`
}

// PushSubscription is a stored web-push subscription.
type PushSubscription struct {
	ID       string `json:"id,omitempty"`
	UserID   string `json:"user_id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	AuthKey  string `json:"auth_key"`
}

// Reminder is a due appointment reminder.
type Reminder struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	UserID    *string   `json:"user_id"`
	Titel     string    `json:"titel"`
	FaelligAm time.Time `json:"faellig_am"`
}
