package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/praxisos/praxis-server/internal/pipeline"
)

// HeaderGate guards machine-to-machine endpoints with a shared secret
// carried in a request header. The comparison is constant-time.
func HeaderGate(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				pipeline.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Nicht angemeldet.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
