package schema

import "sort"

// FieldRef points at either an attribute or a relationship of a schema. Exactly
// one of Attribute and Relationship is set.
type FieldRef struct {
	Name         string
	OrderWeight  int
	Attribute    *Attribute
	Relationship *Relationship
}

// IsRelationship reports whether the reference targets a relationship.
func (f FieldRef) IsRelationship() bool {
	return f.Relationship != nil
}

// Fields merges attributes and relationships into a single list ordered by
// order_weight ascending. Attributes and relationships share the weight space;
// equal weights keep fetch order with attributes ahead of relationships.
func (s ObjectSchema) Fields() []FieldRef {
	refs := make([]FieldRef, 0, len(s.Attributes)+len(s.Relationships))
	for i := range s.Attributes {
		attr := &s.Attributes[i]
		refs = append(refs, FieldRef{Name: attr.Name, OrderWeight: attr.OrderWeight, Attribute: attr})
	}
	for i := range s.Relationships {
		rel := &s.Relationships[i]
		refs = append(refs, FieldRef{Name: rel.Name, OrderWeight: rel.OrderWeight, Relationship: rel})
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].OrderWeight < refs[j].OrderWeight
	})
	return refs
}

// SortedByWeight returns a copy of the schema with attributes and
// relationships each sorted by order_weight (stable).
func (s ObjectSchema) SortedByWeight() ObjectSchema {
	out := s
	out.Attributes = append([]Attribute(nil), s.Attributes...)
	out.Relationships = append([]Relationship(nil), s.Relationships...)
	sort.SliceStable(out.Attributes, func(i, j int) bool {
		return out.Attributes[i].OrderWeight < out.Attributes[j].OrderWeight
	})
	sort.SliceStable(out.Relationships, func(i, j int) bool {
		return out.Relationships[i].OrderWeight < out.Relationships[j].OrderWeight
	})
	return out
}
