package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/praxisos/praxis-server/internal/auditstore"
)

func newMockAudit(t *testing.T) (*auditstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return auditstore.NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestWebhookEventsPatientDenied(t *testing.T) {
	// No audit store wired: reaching the event query would 500, so the 403
	// also proves the gate fired first.
	env := newTestEnv(t, withRole("patient", noBackendCalls(t)))

	rec := env.do(t, http.MethodGet, "/api/v1/admin/webhook-events",
		tokenFor(t, "patient-1", ""), "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestWebhookEventsAdminListsNewestFirst(t *testing.T) {
	audit, mock := newMockAudit(t)
	mock.ExpectQuery("SELECT id, quelle, event_typ, payload, empfangen_am").
		WithArgs(auditstore.MaxRecentEvents).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quelle", "event_typ", "payload", "empfangen_am"}).
			AddRow("e-2", "billing", "invoice.paid", []byte(`{}`), time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)).
			AddRow("e-1", "billing", "invoice.created", []byte(`{}`), time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)))

	env := newTestEnv(t, withRole("admin", noBackendCalls(t)), withAudit(audit))

	rec := env.do(t, http.MethodGet, "/api/v1/admin/webhook-events",
		tokenFor(t, "admin-1", ""), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec.Body.Bytes())
	events, ok := body["events"].([]any)
	if !ok || len(events) != 2 {
		t.Fatalf("body = %v", body)
	}
	first := events[0].(map[string]any)
	if first["id"] != "e-2" {
		t.Fatalf("events not newest first: %v", events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordWebhookRequiresSecret(t *testing.T) {
	audit, _ := newMockAudit(t)
	env := newTestEnv(t, noBackendCalls(t), withAudit(audit))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/billing",
		strings.NewReader(`{"type":"invoice.paid"}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without the shared secret", rec.Code)
	}
}

func TestRecordWebhookStoresEvent(t *testing.T) {
	audit, mock := newMockAudit(t)
	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs("billing", "invoice.paid", []byte(`{"type":"invoice.paid","amount":4200}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	env := newTestEnv(t, noBackendCalls(t), withAudit(audit))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/billing",
		strings.NewReader(`{"type":"invoice.paid","amount":4200}`))
	r.Header.Set(WebhookSecretHeader, testWebhookSecret)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordWebhookRejectsInvalidPayload(t *testing.T) {
	audit, _ := newMockAudit(t)
	env := newTestEnv(t, noBackendCalls(t), withAudit(audit))

	tests := []struct {
		name   string
		source string
		body   string
	}{
		{"invalid source", "Not%20Valid", `{"type":"x"}`},
		{"invalid json", "billing", `{"type":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/"+tt.source,
				strings.NewReader(tt.body))
			r.Header.Set(WebhookSecretHeader, testWebhookSecret)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, r)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}
