package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestPublishCourseByNonOwner(t *testing.T) {
	env := newTestEnv(t, withRole("physiotherapeut",
		jsonResponse(http.StatusBadRequest, `{"code":"PX403","message":"kurs nicht gefunden oder keine berechtigung"}`)))

	rec := env.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/publish",
		tokenFor(t, "intruder", ""), "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["error"] != "Keine Berechtigung oder Kurs nicht gefunden." {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestPublishCourseWithoutLessons(t *testing.T) {
	env := newTestEnv(t, withRole("heilpraktiker",
		jsonResponse(http.StatusBadRequest, `{"code":"PX422","message":"kurs hat keine lektionen"}`)))

	rec := env.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/publish",
		tokenFor(t, "owner", ""), "")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestPublishCourseSuccess(t *testing.T) {
	env := newTestEnv(t, withRole("heilpraktiker",
		jsonResponse(http.StatusOK, `{"version":4,"status":"veroeffentlicht"}`)))

	rec := env.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/publish",
		tokenFor(t, "owner", ""), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["version"] != float64(4) || body["status"] != "veroeffentlicht" {
		t.Fatalf("body = %v", body)
	}
}

func TestArchiveCourseAlreadyArchived(t *testing.T) {
	env := newTestEnv(t, withRole("admin", jsonResponse(http.StatusOK, `[]`)))

	rec := env.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/archive",
		tokenFor(t, "staff-1", ""), "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an already-archived course", rec.Code)
	}
}

func TestArchiveCourseSuccess(t *testing.T) {
	env := newTestEnv(t, withRole("admin",
		jsonResponse(http.StatusOK, `[{"id":"`+courseID+`","besitzer_id":"staff-1","titel":"Rückenschule","status":"archiviert","version":1}]`)))

	rec := env.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/archive",
		tokenFor(t, "staff-1", ""), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestArchiveCourseInvalidIdentifier(t *testing.T) {
	env := newTestEnv(t, withRole("admin", noBackendCalls(t)))

	rec := env.do(t, http.MethodPost, "/api/v1/courses/not-an-id/archive",
		tokenFor(t, "staff-1", ""), "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	// Only the role lookup may have run; the course table stays untouched.
	if n := env.backend.countMatching("/rest/v1/kurse"); n != 0 {
		t.Fatalf("course table reached %d times despite invalid identifier", n)
	}
}

func TestListCoursesRequiresSession(t *testing.T) {
	env := newTestEnv(t, noBackendCalls(t))

	rec := env.do(t, http.MethodGet, "/api/v1/courses", "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env.backend.count() != 0 {
		t.Fatalf("data layer reached %d times without a session", env.backend.count())
	}
}

func TestListCoursesSuccess(t *testing.T) {
	env := newTestEnv(t, jsonResponse(http.StatusOK,
		`[{"id":"`+courseID+`","besitzer_id":"staff-1","titel":"Rückenschule","status":"veroeffentlicht","version":2}]`))

	rec := env.do(t, http.MethodGet, "/api/v1/courses", tokenFor(t, "anyone", ""), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec.Body.Bytes())
	courses, ok := body["courses"].([]any)
	if !ok || len(courses) != 1 {
		t.Fatalf("body = %v", body)
	}
	// Listing admits any authenticated caller without a profile lookup.
	if n := env.backend.countMatching("/rest/v1/profiles"); n != 0 {
		t.Fatalf("profile lookup ran %d times for a role-free operation", n)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	env := newTestEnv(t, jsonResponse(http.StatusNotFound, `{"code":"PGRST116","message":"no rows"}`))

	rec := env.do(t, http.MethodGet, "/api/v1/courses/"+courseID, tokenFor(t, "anyone", ""), "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["error"] != "Kurs nicht gefunden." {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestCourseRouteUpstreamFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, jsonResponse(http.StatusInternalServerError, `{"message":"connection to database failed at 10.0.0.3"}`))

	rec := env.do(t, http.MethodGet, "/api/v1/courses", tokenFor(t, "anyone", ""), "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := rec.Body.String(); body == "" || decodeBody(t, rec.Body.Bytes())["error"] != "Interner Serverfehler." {
		t.Fatalf("body = %s", body)
	}
}
