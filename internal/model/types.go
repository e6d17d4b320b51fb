package model

import (
	"fmt"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/options"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

// FieldType is the editable control a field renders as.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextArea    FieldType = "textarea"
	FieldTypePassword    FieldType = "password"
	FieldTypeNumber      FieldType = "number"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
)

const (
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Length limits encode their threshold in Params["value"]; pattern rules keep
// the expression in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Rules groups the submit-time constraints of a field.
type Rules struct {
	Required    bool             `json:"required"`
	Validations []ValidationRule `json:"validate,omitempty"`
}

// DisabledReason explains why a field is read-only.
type DisabledReason string

const (
	DisabledInherited       DisabledReason = "inherited"
	DisabledProtected       DisabledReason = "protected"
	DisabledPeerUnavailable DisabledReason = "peer_unavailable"
)

// Field describes one editable field of a compiled form.
type Field struct {
	Name           string                `json:"name"`
	Label          string                `json:"label"`
	Description    string                `json:"description,omitempty"`
	Type           FieldType             `json:"type"`
	Kind           string                `json:"kind,omitempty"`
	Peer           string                `json:"peer,omitempty"`
	Cardinality    schema.Cardinality    `json:"cardinality,omitempty"`
	Value          fieldvalue.FieldValue `json:"value"`
	Options        []options.Option      `json:"options,omitempty"`
	Rules          Rules                 `json:"rules"`
	Unique         bool                  `json:"unique"`
	Disabled       bool                  `json:"disabled"`
	DisabledReason DisabledReason        `json:"disabled_reason,omitempty"`
	OrderWeight    int                   `json:"order_weight"`
}

// IsRelationship reports whether the field edits a relationship.
func (f Field) IsRelationship() bool {
	return f.Peer != ""
}

// Form is the ordered field list compiled for one object kind, plus the
// warnings collected for fields that could not be fully compiled.
type Form struct {
	Kind     string  `json:"kind"`
	Create   bool    `json:"create"`
	Fields   []Field `json:"fields"`
	Warnings []error `json:"-"`
}

// Field returns the field with the given name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Input carries everything the compiler reads.
type Input struct {
	Schema schema.ObjectSchema

	// KindNames maps relationship peer kinds to schema names.
	KindNames map[string]string

	// Object is the existing object payload; nil compiles a create form.
	Object fieldvalue.RawObject

	// Options holds peer option lists keyed by peer name.
	Options options.Result

	// IsOwner reports whether the current user owns a protected value's
	// source. Nil means the user owns nothing.
	IsOwner func(source *fieldvalue.OwnerRef) bool
}

// SchemaResolutionError reports a relationship whose peer kind is missing from
// the kind-name map. The field is dropped from the form.
type SchemaResolutionError struct {
	Field string
	Peer  string
}

func (e *SchemaResolutionError) Error() string {
	return fmt.Sprintf("model: relationship %q: peer kind %q is not in the schema", e.Field, e.Peer)
}
