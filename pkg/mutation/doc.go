// Package mutation computes the arguments of a create or update mutation from
// a submitted form. In update mode only fields whose value differs from the
// original object are emitted; in create mode every field carrying a
// non-default value is. Arguments follow the merged order_weight order of the
// schema.
//
// Attribute arguments are named "<attribute>__value" and hold the scalar.
// Relationship arguments are named after the relationship and hold a PeerRef
// (cardinality one) or the full replacement list of PeerRefs (cardinality
// many). A cleared single relationship encodes as {"id": null}.
//
// Required fields are checked on every submission, changed or not, and a
// Result with errors must not be submitted.
package mutation
