// Package openapi imports object schemas from an OpenAPI 3 document. Every
// object schema under components.schemas becomes a node: scalar properties
// become attributes and properties referencing another component (directly,
// through array items, or declared with the x-relationships extension) become
// relationships.
//
// Recognised extensions:
//
//	x-nodeform-kind   on a property, overrides the attribute kind (e.g. TextArea)
//	x-order-weight    on a property, sets its order_weight
//	x-unique          on a property, marks the attribute unique
//	x-relationships   on a property, {type|kind, target, cardinality, identifier}
//	x-display-labels  on a schema, list of display label paths
package openapi
