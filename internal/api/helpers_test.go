package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/praxisos/praxis-server/internal/auditstore"
	"github.com/praxisos/praxis-server/internal/config"
	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/metrics"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/push"
	"github.com/praxisos/praxis-server/internal/store"
	"github.com/praxisos/praxis-server/internal/supabase"
)

const (
	testJWTSecret     = "handler-test-jwt-secret"
	testPushSecret    = "handler-test-push-secret"
	testWebhookSecret = "handler-test-webhook-secret"

	courseID     = "6f1a2b3c-4d5e-6f70-8192-a3b4c5d6e7f8"
	enrollmentID = "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9"
)

// supaBackend is a fake PostgREST/RPC backend recording every request so
// tests can assert that short-circuited pipelines never reach the data layer.
type supaBackend struct {
	mu       sync.Mutex
	requests []string
	handler  http.HandlerFunc
}

func (b *supaBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.mu.Unlock()
	b.handler(w, r)
}

func (b *supaBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// countMatching counts recorded requests whose "METHOD /path" contains
// substr.
func (b *supaBackend) countMatching(substr string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, req := range b.requests {
		if strings.Contains(req, substr) {
			n++
		}
	}
	return n
}

type testEnv struct {
	router  http.Handler
	backend *supaBackend
}

type envOption func(*Options)

func withAudit(audit *auditstore.Store) envOption {
	return func(o *Options) { o.Audit = audit }
}

func withSender(sender *push.Sender) envOption {
	return func(o *Options) { o.Sender = sender }
}

func newTestEnv(t *testing.T, handler http.HandlerFunc, opts ...envOption) *testEnv {
	t.Helper()

	backend := &supaBackend{handler: handler}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{
		ProjectURL: srv.URL,
		AnonKey:    "anon-key",
		ServiceKey: "service-key",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	logger := logging.New("test", "error", "text")
	st := store.New(client, logger)
	pipe := pipeline.New(pipeline.NewJWTSessionResolver(testJWTSecret), st, logger)

	options := Options{
		Store:    st,
		Pipeline: pipe,
		Logger:   logger,
		Metrics:  metrics.New(),
		Config: &config.Config{
			RateLimitPerSecond:  1000,
			RateLimitBurst:      1000,
			PushSharedSecret:    testPushSecret,
			WebhookSharedSecret: testWebhookSecret,
		},
		Features: config.DefaultFeaturesConfig(),
		Version:  "test",
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &testEnv{
		router:  NewServer(options).Router(),
		backend: backend,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	r := httptest.NewRequest(method, target, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func tokenFor(t *testing.T, subject, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// withRole wraps a backend handler, answering profile role lookups with the
// given role and delegating everything else.
func withRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/v1/profiles" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"rolle":"` + role + `"}`))
			return
		}
		next(w, r)
	}
}

func jsonResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func noBackendCalls(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected data-layer call: %s %s", r.Method, r.URL.Path)
	}
}
