package pipeline

import (
	"encoding/json"
	"net/http"

	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/logging"
)

// errorBody is the fixed failure envelope.
type errorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps an error onto the failure envelope and status code.
// Expected outcomes (401/403/404/410/422 and client errors) pass their
// message through; anything else is logged server-side and surfaced as a
// generic 500 without upstream detail.
func WriteError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	se := errors.GetServiceError(err)
	if se == nil {
		se = errors.Upstream(err)
	}

	if !se.Expected() && logger != nil {
		logger.WithContext(r.Context()).WithError(se.Err).WithFields(map[string]any{
			"path":   r.URL.Path,
			"method": r.Method,
		}).Error("upstream failure")
	}

	WriteJSON(w, se.HTTPStatus, errorBody{Error: se.Message, Details: se.Details})
}
