// Package fieldvalue is the single seam between raw payload cells and form
// state. Object payloads arrive with attribute cells that may be bare scalars
// or objects carrying {value, is_default, is_inherited, is_protected, source,
// owner}, and relationship cells in several GraphQL shapes. Normalize and
// NormalizeRelationship fold all of them into FieldValue; Update and
// UpdateRelationship apply user input while carrying the metadata the UI does
// not re-derive. Every function here is pure, total and idempotent.
package fieldvalue
