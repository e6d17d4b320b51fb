package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/options"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

// Builder compiles object schemas into ordered form fields.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if options.EnumLabel != nil {
		opts.EnumLabel = options.EnumLabel
	}
	return &Builder{opts: opts}
}

// Compile produces one field per attribute and relationship of the schema, in
// merged order_weight order. It never fails: relationships whose peer cannot
// be resolved are dropped with a SchemaResolutionError warning, and
// relationships whose options failed to load are kept disabled with the
// PeerFetchError as warning.
func (b *Builder) Compile(in Input) Form {
	form := Form{
		Kind:   in.Schema.Kind,
		Create: in.Object == nil,
	}

	refs := in.Schema.Fields()
	form.Fields = make([]Field, 0, len(refs))
	for _, ref := range refs {
		if ref.Attribute != nil {
			form.Fields = append(form.Fields, b.attributeField(*ref.Attribute, in))
			continue
		}

		field, warning := b.relationshipField(*ref.Relationship, in)
		if warning != nil {
			form.Warnings = append(form.Warnings, warning)
		}
		var unresolved *SchemaResolutionError
		if errors.As(warning, &unresolved) {
			continue
		}
		form.Fields = append(form.Fields, field)
	}
	return form
}

func (b *Builder) attributeField(attr schema.Attribute, in Input) Field {
	field := Field{
		Name:        attr.Name,
		Label:       b.label(attr.Label, attr.Name),
		Description: attr.Description,
		Type:        attributeType(attr),
		Kind:        string(attr.Kind),
		Unique:      attr.Unique,
		OrderWeight: attr.OrderWeight,
		Rules: Rules{
			Required:    attr.Mandatory(),
			Validations: attributeValidations(attr),
		},
	}

	if in.Object == nil {
		field.Value = fieldvalue.FieldValue{Value: attr.DefaultValue, IsDefault: true}
	} else {
		field.Value = fieldvalue.Normalize(in.Object[attr.Name])
	}

	if field.Type == FieldTypeSelect {
		field.Options = b.enumOptions(attr.Enum)
	}

	field.Disabled, field.DisabledReason = editability(attr.Inherited, field.Value, in.IsOwner)
	return field
}

func (b *Builder) relationshipField(rel schema.Relationship, in Input) (Field, error) {
	peerName, ok := in.KindNames[rel.Peer]
	if !ok {
		return Field{}, &SchemaResolutionError{Field: rel.Name, Peer: rel.Peer}
	}

	field := Field{
		Name:        rel.Name,
		Label:       b.label(rel.Label, rel.Name),
		Description: rel.Description,
		Type:        FieldTypeSelect,
		Kind:        rel.Kind,
		Peer:        rel.Peer,
		Cardinality: rel.Cardinality.Normalize(),
		OrderWeight: rel.OrderWeight,
		Rules:       Rules{Required: !rel.Optional},
	}
	if field.Cardinality.IsMany() {
		field.Type = FieldTypeMultiSelect
	}

	if in.Object != nil {
		field.Value = fieldvalue.NormalizeRelationship(in.Object[rel.Name], field.Cardinality)
	}

	opts, fetchErr := in.Options.For(peerName)
	field.Options = withSelectedPeers(opts, field.Value)

	field.Disabled, field.DisabledReason = editability(rel.Inherited, field.Value, in.IsOwner)
	if fetchErr != nil && !field.Disabled {
		field.Disabled = true
		field.DisabledReason = DisabledPeerUnavailable
	}
	return field, fetchErr
}

// editability applies the read-only rules shared by attributes and
// relationships: inherited fields and protected values whose source the
// current user does not own cannot be edited.
func editability(inherited bool, value fieldvalue.FieldValue, isOwner func(*fieldvalue.OwnerRef) bool) (bool, DisabledReason) {
	if inherited || value.IsInherited {
		return true, DisabledInherited
	}
	if value.IsProtected && (isOwner == nil || !isOwner(value.Source)) {
		return true, DisabledProtected
	}
	return false, ""
}

func attributeType(attr schema.Attribute) FieldType {
	if len(attr.Enum) > 0 {
		return FieldTypeSelect
	}
	switch attr.Kind {
	case schema.KindNumber:
		return FieldTypeNumber
	case schema.KindBoolean, schema.KindCheckbox:
		return FieldTypeCheckbox
	case schema.KindDateTime:
		return FieldTypeDateTime
	case schema.KindDropdown:
		return FieldTypeSelect
	case schema.KindTextArea:
		return FieldTypeTextArea
	case schema.KindPassword, schema.KindHashedPassword:
		return FieldTypePassword
	default:
		return FieldTypeText
	}
}

func attributeValidations(attr schema.Attribute) []ValidationRule {
	var rules []ValidationRule
	if attr.MinLength != nil {
		rules = append(rules, ValidationRule{
			Kind:   ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.Itoa(*attr.MinLength)},
		})
	}
	if attr.MaxLength != nil {
		rules = append(rules, ValidationRule{
			Kind:   ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.Itoa(*attr.MaxLength)},
		})
	}
	if attr.Regex != "" {
		rules = append(rules, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": attr.Regex},
		})
	}
	return rules
}

func (b *Builder) enumOptions(values []any) []options.Option {
	if len(values) == 0 {
		return nil
	}
	out := make([]options.Option, 0, len(values))
	for _, value := range values {
		out = append(out, options.Option{
			Value: fmt.Sprint(value),
			Label: b.opts.EnumLabel(value),
		})
	}
	return out
}

func (b *Builder) label(label, name string) string {
	if label != "" {
		return label
	}
	return b.opts.Labeler(name)
}
