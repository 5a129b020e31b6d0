package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/metrics"
	"github.com/praxisos/praxis-server/internal/push"
)

func testSender(t *testing.T) *push.Sender {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	sender, err := push.NewSender(push.Config{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		Contact:         "mailto:test@example.de",
	}, logging.New("test", "error", "text"), metrics.New())
	if err != nil {
		t.Fatalf("create sender: %v", err)
	}
	return sender
}

func TestUnsubscribeInvalidEndpointBeforeLookup(t *testing.T) {
	env := newTestEnv(t, noBackendCalls(t))

	rec := env.do(t, http.MethodDelete, "/api/v1/me/push/unsubscribe",
		tokenFor(t, "patient-1", "anna@example.de"), `{"endpoint":"not a url"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.backend.count() != 0 {
		t.Fatalf("profile lookup ran %d times before URL validation", env.backend.count())
	}
}

func TestUnsubscribeWithoutProfile(t *testing.T) {
	env := newTestEnv(t, jsonResponse(http.StatusOK, `[]`))

	rec := env.do(t, http.MethodDelete, "/api/v1/me/push/unsubscribe",
		tokenFor(t, "nobody", "nobody@example.de"),
		`{"endpoint":"https://push.example.net/sub/abc"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["error"] != "Kein Patientenprofil gefunden." {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestSubscribeStoresSubscription(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/patienten":
			jsonResponse(http.StatusOK, `[{"id":"p-1","user_id":"patient-1","vorname":"Anna","nachname":"Muster","email":"anna@example.de"}]`)(w, r)
		case "/rest/v1/push_subscriptions":
			if r.Method != http.MethodPost {
				t.Fatalf("method = %s", r.Method)
			}
			jsonResponse(http.StatusCreated, `[{"id":"s-1","user_id":"patient-1","endpoint":"https://push.example.net/sub/abc","p256dh":"k1","auth_key":"k2"}]`)(w, r)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	rec := env.do(t, http.MethodPost, "/api/v1/me/push/subscribe",
		tokenFor(t, "patient-1", "anna@example.de"),
		`{"endpoint":"https://push.example.net/sub/abc","keys":{"p256dh":"k1","auth":"k2"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec.Body.Bytes())["ok"] != true {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSendPushRequiresSecret(t *testing.T) {
	env := newTestEnv(t, noBackendCalls(t), withSender(testSender(t)))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/push/send",
		strings.NewReader(`{"title":"Hallo"}`))
	r.Header.Set(PushSecretHeader, "wrong-secret")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSendPushSchemaViolationIs400(t *testing.T) {
	env := newTestEnv(t, noBackendCalls(t), withSender(testSender(t)))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/push/send",
		strings.NewReader(`{"title":"","url":"not a url"}`))
	r.Header.Set(PushSecretHeader, testPushSecret)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSendPushNoSubscribers(t *testing.T) {
	env := newTestEnv(t, jsonResponse(http.StatusOK, `[]`), withSender(testSender(t)))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/push/send",
		strings.NewReader(`{"userIds":["6f1a2b3c-4d5e-6f70-8192-a3b4c5d6e7f8"],"title":"Terminerinnerung"}`))
	r.Header.Set(PushSecretHeader, testPushSecret)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["ok"] != true || body["sent"] != float64(0) || body["failed"] != float64(0) || body["cleaned"] != float64(0) {
		t.Fatalf("body = %v", body)
	}
}
