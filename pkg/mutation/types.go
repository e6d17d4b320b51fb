package mutation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode selects create or update diffing.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// ParseMode maps "create"/"update" (case-insensitive) to a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeCreate:
		return ModeCreate, nil
	case ModeUpdate:
		return ModeUpdate, nil
	}
	return "", fmt.Errorf("mutation: unknown mode %q", raw)
}

const valueSuffix = "__value"

// Argument is one named mutation argument.
type Argument struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// PeerRef references a relationship peer by id. The zero PeerRef encodes as
// {"id": null} and clears a single relationship.
type PeerRef struct {
	ID string
}

// MarshalJSON encodes the reference, emitting a null id when empty.
func (p PeerRef) MarshalJSON() ([]byte, error) {
	if p.ID == "" {
		return []byte(`{"id":null}`), nil
	}
	return json.Marshal(struct {
		ID string `json:"id"`
	}{ID: p.ID})
}

// Reasons reported by InvalidFieldValueError.
const (
	ReasonRequired  = "required"
	ReasonNotNumber = "not a number"
	ReasonNotBool   = "not a boolean"
	ReasonPattern   = "does not match pattern"
	// ReasonInvalidPattern is reported when the schema regex does not
	// compile; the value cannot be checked and is held back.
	ReasonInvalidPattern = "schema pattern does not compile"
	ReasonMinLength      = "shorter than minimum length"
	ReasonMaxLength      = "longer than maximum length"
)

// InvalidFieldValueError reports a field whose submitted value cannot be sent.
type InvalidFieldValueError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("mutation: field %q: %s", e.Field, e.Reason)
}

// Result is the outcome of a diff: the arguments to send and the per-field
// errors that block submission.
type Result struct {
	Args   []Argument
	Errors []*InvalidFieldValueError
}

// Blocked reports whether the submission must not be sent.
func (r Result) Blocked() bool {
	return len(r.Errors) > 0
}

// Err joins the field errors, or returns nil when there are none.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, err := range r.Errors {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Empty reports whether nothing changed.
func (r Result) Empty() bool {
	return len(r.Args) == 0
}

// Arg returns the argument with the given name.
func (r Result) Arg(name string) (Argument, bool) {
	for _, arg := range r.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return Argument{}, false
}

// FieldError returns the error recorded for field, if any.
func (r Result) FieldError(field string) *InvalidFieldValueError {
	for _, err := range r.Errors {
		if err.Field == field {
			return err
		}
	}
	return nil
}

// Payload folds the arguments into the mutation data input:
// "asn__value" becomes {"asn": {"value": ...}} and relationship arguments
// are kept under their name.
func (r Result) Payload() map[string]any {
	out := make(map[string]any, len(r.Args))
	for _, arg := range r.Args {
		if attr, ok := strings.CutSuffix(arg.Name, valueSuffix); ok {
			out[attr] = map[string]any{"value": arg.Value}
			continue
		}
		out[arg.Name] = arg.Value
	}
	return out
}
