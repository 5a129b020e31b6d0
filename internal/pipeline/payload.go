package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/praxisos/praxis-server/internal/errors"
)

// maxBodyBytes bounds request bodies; anything larger is a client error.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field errors under the JSON name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON parses the request body into dst. Malformed JSON is a 400
// outcome, deliberately distinct from schema validation failure (422).
func DecodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return errors.BadRequest("Ungültiger Request-Body.")
	}
	// Trailing garbage after the JSON value is malformed input too.
	if dec.More() {
		return errors.BadRequest("Ungültiger Request-Body.")
	}
	return nil
}

// ValidatePayload checks dst against its schema tags and converts failures
// into a 422 outcome with per-field error messages.
func ValidatePayload(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Upstream(err)
	}

	fieldErrors := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fieldErrors[name] = append(fieldErrors[name], fieldMessage(fe))
	}
	return errors.Validation(fieldErrors)
}

// DecodeValid parses and validates the request body in one step.
func DecodeValid(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return ValidatePayload(dst)
}

// fieldMessage maps a validator failure onto a user-facing German message.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Pflichtfeld fehlt."
	case "oneof":
		return fmt.Sprintf("Ungültiger Wert. Erlaubt: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return "Muss eine gültige URL sein."
	case "uuid", "uuid4":
		return "Muss eine gültige UUID sein."
	case "email":
		return "Muss eine gültige E-Mail-Adresse sein."
	case "max":
		return fmt.Sprintf("Darf höchstens %s Zeichen lang sein.", fe.Param())
	case "min":
		return fmt.Sprintf("Muss mindestens %s Zeichen lang sein.", fe.Param())
	default:
		return "Ungültiger Wert."
	}
}
