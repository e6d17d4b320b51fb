package schema

import "strings"

// AttributeKind names the server-declared kind of an attribute.
type AttributeKind string

const (
	KindText           AttributeKind = "Text"
	KindTextArea       AttributeKind = "TextArea"
	KindNumber         AttributeKind = "Number"
	KindBoolean        AttributeKind = "Boolean"
	KindCheckbox       AttributeKind = "Checkbox"
	KindDateTime       AttributeKind = "DateTime"
	KindDropdown       AttributeKind = "Dropdown"
	KindPassword       AttributeKind = "Password"
	KindHashedPassword AttributeKind = "HashedPassword"
	KindJSON           AttributeKind = "JSON"
	KindList           AttributeKind = "List"
	KindURL            AttributeKind = "URL"
	KindEmail          AttributeKind = "Email"
	KindIPHost         AttributeKind = "IPHost"
	KindIPNetwork      AttributeKind = "IPNetwork"
	KindMacAddress     AttributeKind = "MacAddress"
	KindBandwidth      AttributeKind = "Bandwidth"
	KindColor          AttributeKind = "Color"
	KindAny            AttributeKind = "Any"
)

// Cardinality describes how many peers a relationship can hold.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// Normalize folds the declared value to one of the two known cardinalities.
// Matching is case-insensitive and ignores surrounding space; anything other
// than "many" is single.
func (c Cardinality) Normalize() Cardinality {
	if strings.EqualFold(strings.TrimSpace(string(c)), string(CardinalityMany)) {
		return CardinalityMany
	}
	return CardinalityOne
}

// IsMany reports whether c normalizes to CardinalityMany.
func (c Cardinality) IsMany() bool {
	return c.Normalize() == CardinalityMany
}

// Attribute is a scalar field of an object kind. Pointer fields stay nil
// when the server sends null.
type Attribute struct {
	Name         string        `json:"name" yaml:"name"`
	Kind         AttributeKind `json:"kind" yaml:"kind"`
	Label        string        `json:"label,omitempty" yaml:"label,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultValue any           `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Enum         []any         `json:"enum,omitempty" yaml:"enum,omitempty"`
	Regex        string        `json:"regex,omitempty" yaml:"regex,omitempty"`
	MinLength    *int          `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength    *int          `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Unique       bool          `json:"unique" yaml:"unique"`
	Optional     bool          `json:"optional" yaml:"optional"`
	Inherited    bool          `json:"inherited" yaml:"inherited"`
	OrderWeight  int           `json:"order_weight" yaml:"order_weight"`
}

// FilterDescriptor advertises a filter the server accepts for a kind or a
// relationship peer.
type FilterDescriptor struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum,omitempty"`
	ObjectKind  string `json:"object_kind,omitempty" yaml:"object_kind,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Relationship references one or many peer objects of another kind.
type Relationship struct {
	Name        string             `json:"name" yaml:"name"`
	Peer        string             `json:"peer" yaml:"peer"`
	Label       string             `json:"label,omitempty" yaml:"label,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        string             `json:"kind,omitempty" yaml:"kind,omitempty"`
	Cardinality Cardinality        `json:"cardinality" yaml:"cardinality"`
	Identifier  string             `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Optional    bool               `json:"optional" yaml:"optional"`
	Inherited   bool               `json:"inherited" yaml:"inherited"`
	OrderWeight int                `json:"order_weight" yaml:"order_weight"`
	Filters     []FilterDescriptor `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// IsMany reports whether the relationship holds a list of peers.
func (r Relationship) IsMany() bool {
	return r.Cardinality.IsMany()
}

// ObjectSchema describes an object kind: its attributes, relationships and
// presentation hints. Values are treated as immutable once fetched.
type ObjectSchema struct {
	Kind          string             `json:"kind" yaml:"kind"`
	Namespace     string             `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name          string             `json:"name" yaml:"name"`
	Label         string             `json:"label,omitempty" yaml:"label,omitempty"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultFilter string             `json:"default_filter,omitempty" yaml:"default_filter,omitempty"`
	Attributes    []Attribute        `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relationships []Relationship     `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	OrderBy       []string           `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	DisplayLabels []string           `json:"display_labels,omitempty" yaml:"display_labels,omitempty"`
	Filters       []FilterDescriptor `json:"filters,omitempty" yaml:"filters,omitempty"`
	InheritFrom   []string           `json:"inherit_from,omitempty" yaml:"inherit_from,omitempty"`
}

// Bundle is the full schema payload for a branch: a hash identifying the
// schema revision plus the node and generic schemas.
type Bundle struct {
	Hash     string         `json:"hash" yaml:"hash"`
	Nodes    []ObjectSchema `json:"nodes" yaml:"nodes"`
	Generics []ObjectSchema `json:"generics,omitempty" yaml:"generics,omitempty"`
}

// KindNames maps every node and generic kind to its schema name. Relationship
// peers are declared by kind and resolved to names through this map.
func (b Bundle) KindNames() map[string]string {
	out := make(map[string]string, len(b.Nodes)+len(b.Generics))
	for _, node := range b.Generics {
		out[node.Kind] = node.Name
	}
	for _, node := range b.Nodes {
		out[node.Kind] = node.Name
	}
	return out
}

// Find returns the node or generic schema matching kind, falling back to a
// match on name.
func (b Bundle) Find(kindOrName string) (ObjectSchema, bool) {
	for _, group := range [][]ObjectSchema{b.Nodes, b.Generics} {
		for _, node := range group {
			if node.Kind == kindOrName {
				return node, true
			}
		}
	}
	for _, group := range [][]ObjectSchema{b.Nodes, b.Generics} {
		for _, node := range group {
			if node.Name == kindOrName {
				return node, true
			}
		}
	}
	return ObjectSchema{}, false
}
