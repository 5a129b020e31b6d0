package store

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/supabase"
)

// recordedRequest captures one request against the fake PostgREST backend.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Bearer string
}

type backend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Bearer: r.Header.Get("Authorization"),
	})
	b.mu.Unlock()
	b.handler(w, r)
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func newTestStore(t *testing.T, handler http.HandlerFunc) (*Store, *backend) {
	t.Helper()

	be := &backend{handler: handler}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{
		ProjectURL: srv.URL,
		AnonKey:    "anon-key",
		ServiceKey: "service-key",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	return New(client, logging.New("test", "error", "text")), be
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
