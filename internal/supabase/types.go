// Package supabase provides the REST, auth, and realtime client for the
// hosted backend. Row-level security is enforced server-side by the store;
// requests carry either the anon key plus a user access token (RLS-scoped)
// or the service role key (privileged, used only by background components).
package supabase

import (
	"time"
)

// Config holds client configuration.
type Config struct {
	// ProjectURL is the project base URL (e.g. https://xxx.supabase.co).
	ProjectURL string

	// AnonKey is the public API key sent with RLS-scoped requests.
	AnonKey string

	// ServiceKey is the service role key for privileged operations that
	// bypass RLS. Optional; privileged calls fail without it.
	ServiceKey string

	// DefaultHeaders are added to every request.
	DefaultHeaders map[string]string

	// Timeout for HTTP requests.
	Timeout time.Duration
}

// User represents an authenticated user as returned by the auth API.
type User struct {
	ID           string         `json:"id"`
	Aud          string         `json:"aud"`
	Role         string         `json:"role"`
	Email        string         `json:"email"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FilterOperator for query filters.
type FilterOperator string

const (
	OpEq    FilterOperator = "eq"
	OpNeq   FilterOperator = "neq"
	OpGt    FilterOperator = "gt"
	OpGte   FilterOperator = "gte"
	OpLt    FilterOperator = "lt"
	OpLte   FilterOperator = "lte"
	OpLike  FilterOperator = "like"
	OpILike FilterOperator = "ilike"
	OpIs    FilterOperator = "is"
	OpIn    FilterOperator = "in"
)

// OrderDirection for sorting.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// ChangeEvent is a database change received over the realtime channel.
type ChangeEvent struct {
	Type      string         `json:"type"`
	Table     string         `json:"table"`
	Schema    string         `json:"schema"`
	Record    map[string]any `json:"record,omitempty"`
	OldRecord map[string]any `json:"old_record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ChangeEventType for subscription filtering.
type ChangeEventType string

const (
	EventInsert ChangeEventType = "INSERT"
	EventUpdate ChangeEventType = "UPDATE"
	EventDelete ChangeEventType = "DELETE"
	EventAll    ChangeEventType = "*"
)

// SubscriptionConfig selects the events a realtime listener receives.
type SubscriptionConfig struct {
	Schema string
	Table  string
	Event  ChangeEventType
}

// Error represents an API error returned by the store.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"status_code"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsNotFound reports whether err is a missing-row error: an HTTP 404 or the
// PostgREST "no rows" code returned for single-object requests.
func IsNotFound(err error) bool {
	se, ok := err.(*Error)
	if !ok {
		return false
	}
	return se.StatusCode == 404 || se.Code == "PGRST116"
}

// IsConflict reports whether err is a uniqueness or constraint violation.
func IsConflict(err error) bool {
	se, ok := err.(*Error)
	if !ok {
		return false
	}
	return se.StatusCode == 409 || se.Code == "23505"
}
