package api

import (
	"net/http"
	"testing"
)

func TestOwnPatientRecordRequiresPatientRole(t *testing.T) {
	env := newTestEnv(t, withRole("physiotherapeut", noBackendCalls(t)))

	rec := env.do(t, http.MethodGet, "/api/v1/patients/me",
		tokenFor(t, "staff-1", "staff@example.de"), "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestOwnPatientRecordFound(t *testing.T) {
	env := newTestEnv(t, withRole("patient", jsonResponse(http.StatusOK,
		`[{"id":"p-1","user_id":"patient-1","vorname":"Anna","nachname":"Muster","email":"anna@example.de"}]`)))

	rec := env.do(t, http.MethodGet, "/api/v1/patients/me",
		tokenFor(t, "patient-1", "anna@example.de"), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec.Body.Bytes())
	patient, ok := body["patient"].(map[string]any)
	if !ok || patient["vorname"] != "Anna" {
		t.Fatalf("body = %v", body)
	}
}

func TestOwnPatientRecordMissing(t *testing.T) {
	env := newTestEnv(t, withRole("patient", jsonResponse(http.StatusOK, `[]`)))

	rec := env.do(t, http.MethodGet, "/api/v1/patients/me",
		tokenFor(t, "patient-1", "anna@example.de"), "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpointIsOpen(t *testing.T) {
	env := newTestEnv(t, noBackendCalls(t))

	rec := env.do(t, http.MethodGet, "/health", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}
