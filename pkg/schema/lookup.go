package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Attribute returns the attribute with the given name.
func (s ObjectSchema) Attribute(name string) (Attribute, bool) {
	for _, attr := range s.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Relationship returns the relationship with the given name.
func (s ObjectSchema) Relationship(name string) (Relationship, bool) {
	for _, rel := range s.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

// RelationshipsByIdentifier returns every relationship sharing identifier.
func (s ObjectSchema) RelationshipsByIdentifier(identifier string) []Relationship {
	var out []Relationship
	for _, rel := range s.Relationships {
		if rel.Identifier == identifier {
			out = append(out, rel)
		}
	}
	return out
}

// Field resolves name against attributes first, then relationships.
func (s ObjectSchema) Field(name string) (FieldRef, error) {
	for i := range s.Attributes {
		if s.Attributes[i].Name == name {
			attr := s.Attributes[i]
			return FieldRef{Name: name, OrderWeight: attr.OrderWeight, Attribute: &attr}, nil
		}
	}
	for i := range s.Relationships {
		if s.Relationships[i].Name == name {
			rel := s.Relationships[i]
			return FieldRef{Name: name, OrderWeight: rel.OrderWeight, Relationship: &rel}, nil
		}
	}
	return FieldRef{}, fmt.Errorf("schema: unable to find the field %q on %s", name, s.Kind)
}

// AttributeNames lists attribute names in declaration order.
func (s ObjectSchema) AttributeNames() []string {
	out := make([]string, 0, len(s.Attributes))
	for _, attr := range s.Attributes {
		out = append(out, attr.Name)
	}
	return out
}

// RelationshipNames lists relationship names in declaration order.
func (s ObjectSchema) RelationshipNames() []string {
	out := make([]string, 0, len(s.Relationships))
	for _, rel := range s.Relationships {
		out = append(out, rel.Name)
	}
	return out
}

// Mandatory reports whether an attribute must be supplied on create: it is
// not optional and the server has no default to fall back on.
func (a Attribute) Mandatory() bool {
	return !a.Optional && a.DefaultValue == nil
}

// MandatoryInputNames lists the attributes and relationships a create
// mutation must carry.
func (s ObjectSchema) MandatoryInputNames() []string {
	var out []string
	for _, attr := range s.Attributes {
		if attr.Mandatory() {
			out = append(out, attr.Name)
		}
	}
	for _, rel := range s.Relationships {
		if !rel.Optional {
			out = append(out, rel.Name)
		}
	}
	return out
}

// LocalAttributes returns the attributes not inherited from a generic.
func (s ObjectSchema) LocalAttributes() []Attribute {
	var out []Attribute
	for _, attr := range s.Attributes {
		if !attr.Inherited {
			out = append(out, attr)
		}
	}
	return out
}

// LocalRelationships returns the relationships not inherited from a generic.
func (s ObjectSchema) LocalRelationships() []Relationship {
	var out []Relationship
	for _, rel := range s.Relationships {
		if !rel.Inherited {
			out = append(out, rel)
		}
	}
	return out
}

// UniqueAttributes returns the attributes flagged unique.
func (s ObjectSchema) UniqueAttributes() []Attribute {
	var out []Attribute
	for _, attr := range s.Attributes {
		if attr.Unique {
			out = append(out, attr)
		}
	}
	return out
}

// DisplayLabelFields expands display_labels into the set of fields needed to
// build a display label: "name__value" selects property value of attribute
// name. A nil map means no display_labels are declared (everything is needed).
func (s ObjectSchema) DisplayLabelFields() (map[string][]string, error) {
	if len(s.DisplayLabels) == 0 {
		return nil, nil
	}
	fields := make(map[string][]string, len(s.DisplayLabels))
	for _, item := range s.DisplayLabels {
		parts := strings.Split(item, "__")
		switch len(parts) {
		case 1:
			if _, ok := fields[parts[0]]; !ok {
				fields[parts[0]] = nil
			}
		case 2:
			fields[parts[0]] = append(fields[parts[0]], parts[1])
		default:
			return nil, fmt.Errorf("schema: unexpected value for display_labels, %q is not valid", item)
		}
	}
	return fields, nil
}

// AttributePath is the parsed form of a path such as "asn__value" or
// "organization__name__value".
type AttributePath struct {
	Relationship *Relationship
	Related      *ObjectSchema
	Attribute    *Attribute
	Property     string
}

// ErrAttributePath is wrapped by every ParseAttributePath failure.
var ErrAttributePath = errors.New("schema: invalid attribute path")

// ParseAttributePath splits a double-underscore path and resolves each segment.
// Relationship hops resolve their peer through lookup; only "value" is an
// accepted leaf property.
func (s ObjectSchema) ParseAttributePath(path string, lookup func(kind string) (ObjectSchema, bool)) (AttributePath, error) {
	var (
		out          AttributePath
		attrPiece    string
		propertyPart string
	)
	parts := strings.Split(path, "__")

	if rel, ok := s.Relationship(parts[0]); ok {
		out.Relationship = &rel
		if len(parts) > 1 {
			attrPiece = parts[1]
		}
		if len(parts) > 2 {
			propertyPart = parts[2]
		}
		if lookup == nil {
			return AttributePath{}, fmt.Errorf("%w: no schema lookup for peer %s", ErrAttributePath, rel.Peer)
		}
		related, ok := lookup(rel.Peer)
		if !ok {
			return AttributePath{}, fmt.Errorf("%w: no schema %s in map", ErrAttributePath, rel.Peer)
		}
		out.Related = &related
	} else if _, ok := s.Attribute(parts[0]); ok {
		attrPiece = parts[0]
		if len(parts) > 1 {
			propertyPart = parts[1]
		}
	} else {
		return AttributePath{}, fmt.Errorf("%w: %s is invalid on schema %s", ErrAttributePath, path, s.Kind)
	}

	if attrPiece != "" {
		target := s
		if out.Related != nil {
			target = *out.Related
		}
		attr, ok := target.Attribute(attrPiece)
		if !ok {
			return AttributePath{}, fmt.Errorf("%w: %s is not a valid attribute of %s", ErrAttributePath, attrPiece, target.Kind)
		}
		out.Attribute = &attr
	}

	if propertyPart != "" {
		if propertyPart != "value" {
			name := ""
			if out.Attribute != nil {
				name = out.Attribute.Name
			}
			return AttributePath{}, fmt.Errorf("%w: %s is not a valid property of %s", ErrAttributePath, propertyPart, name)
		}
		out.Property = propertyPart
	}
	return out, nil
}
