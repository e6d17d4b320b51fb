// Package model defines the form structure compiled from an object schema.
// The compiler lives in internal/model; this package re-exports its types and
// wraps it with functional options and decorators.
//
// A Form lists one Field per attribute and relationship, ordered by
// order_weight. Each Field carries its current FieldValue, the selectable
// options for enums and relationships, the required/validation rules used at
// submit time, and whether the field is read-only (Disabled) with the
// DisabledReason. Compilation never fails: relationships with an unknown peer
// kind are dropped and reported as SchemaResolutionError warnings, and
// relationships whose peer options could not be loaded stay in the form,
// disabled, with the options.PeerFetchError as warning.
package model
