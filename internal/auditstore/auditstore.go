// Package auditstore persists the webhook audit trail in a service-side
// Postgres table. The table is written by the webhook receiver and read by
// administrators only; it sits outside the row-level-security surface.
package auditstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// WebhookEvent is one received webhook delivery.
type WebhookEvent struct {
	ID          string          `db:"id" json:"id"`
	Quelle      string          `db:"quelle" json:"quelle"`
	EventTyp    string          `db:"event_typ" json:"event_typ"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	EmpfangenAm time.Time       `db:"empfangen_am" json:"empfangen_am"`
}

// MaxRecentEvents caps the admin listing.
const MaxRecentEvents = 50

// Store is the audit event store.
type Store struct {
	db *sqlx.DB
}

// Open connects to the audit database and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit store: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection (used by tests).
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert records one webhook delivery.
func (s *Store) Insert(ctx context.Context, quelle, eventTyp string, payload json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_events (quelle, event_typ, payload) VALUES ($1, $2, $3)`,
		quelle, eventTyp, payload)
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}

// Recent returns the newest events, newest first, capped at
// MaxRecentEvents.
func (s *Store) Recent(ctx context.Context, limit int) ([]WebhookEvent, error) {
	if limit <= 0 || limit > MaxRecentEvents {
		limit = MaxRecentEvents
	}

	events := []WebhookEvent{}
	err := s.db.SelectContext(ctx, &events,
		`SELECT id, quelle, event_typ, payload, empfangen_am
		   FROM webhook_events
		  ORDER BY empfangen_am DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select webhook events: %w", err)
	}
	return events, nil
}
