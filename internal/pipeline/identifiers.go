package pipeline

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/praxisos/praxis-server/internal/errors"
)

// idPattern is the canonical identifier form: 8-4-4-4-12 hex groups,
// case-insensitive. Anything else is rejected before it reaches the data
// layer.
var idPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateID checks a single identifier and returns its lowercase canonical
// form. Pure function, no I/O.
func ValidateID(raw string) (string, error) {
	if !idPattern.MatchString(raw) {
		return "", errors.BadRequest("Ungültige ID.")
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.BadRequest("Ungültige ID.")
	}
	return strings.ToLower(raw), nil
}

// ValidateIDs checks the named identifiers and returns them canonicalized.
// The first invalid identifier aborts with a 400 outcome.
func ValidateIDs(params map[string]string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		id, err := ValidateID(params[name])
		if err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, nil
}
