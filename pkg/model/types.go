package model

import internalmodel "github.com/goliatone/go-nodeform/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeText        = internalmodel.FieldTypeText
	FieldTypeTextArea    = internalmodel.FieldTypeTextArea
	FieldTypePassword    = internalmodel.FieldTypePassword
	FieldTypeNumber      = internalmodel.FieldTypeNumber
	FieldTypeCheckbox    = internalmodel.FieldTypeCheckbox
	FieldTypeDateTime    = internalmodel.FieldTypeDateTime
	FieldTypeSelect      = internalmodel.FieldTypeSelect
	FieldTypeMultiSelect = internalmodel.FieldTypeMultiSelect
)

const (
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)

type DisabledReason = internalmodel.DisabledReason

const (
	DisabledInherited       = internalmodel.DisabledInherited
	DisabledProtected       = internalmodel.DisabledProtected
	DisabledPeerUnavailable = internalmodel.DisabledPeerUnavailable
)

type ValidationRule = internalmodel.ValidationRule
type Rules = internalmodel.Rules
type Field = internalmodel.Field
type Form = internalmodel.Form
type Input = internalmodel.Input

// SchemaResolutionError reports a relationship whose peer kind is unknown.
type SchemaResolutionError = internalmodel.SchemaResolutionError

// DefaultLabeler humanises a field name.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}

// ValidateSchema checks that a schema is well formed enough to compile.
var ValidateSchema = internalmodel.ValidateSchema
