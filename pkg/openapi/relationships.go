package openapi

import (
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

const relationshipExtensionKey = "x-relationships"

const (
	relationshipTypeAttr       = "type"
	relationshipTargetAttr     = "target"
	relationshipCardAttr       = "cardinality"
	relationshipIdentifierAttr = "identifier"
	relationshipKindAttr       = "kind"
)

var relationshipKeyLookup = map[string]string{
	"type":         relationshipTypeAttr,
	"target":       relationshipTargetAttr,
	"peer":         relationshipTargetAttr,
	"cardinality":  relationshipCardAttr,
	"identifier":   relationshipIdentifierAttr,
	"relationkind": relationshipKindAttr,
}

// relationshipFor reports whether a property is a relationship: either it
// carries the x-relationships extension or it references another component,
// directly or through array items.
func relationshipFor(namespace, name string, ref *openapi3.SchemaRef) (schema.Relationship, bool) {
	meta := normaliseRelationshipExtension(ref.Value.Extensions[relationshipExtensionKey])

	target := meta[relationshipTargetAttr]
	many := false
	if target == "" {
		switch {
		case ref.Ref != "":
			target = ref.Ref
		case ref.Value.Items != nil && ref.Value.Items.Ref != "":
			target = ref.Value.Items.Ref
			many = true
		}
	} else if ref.Value.Items != nil {
		many = true
	}
	if target == "" {
		return schema.Relationship{}, false
	}

	peer := target
	if component, ok := componentName(target); ok {
		peer = kindFor(namespace, component)
	}

	cardinality := schema.CardinalityOne
	switch {
	case meta[relationshipCardAttr] != "":
		if strings.EqualFold(meta[relationshipCardAttr], string(schema.CardinalityMany)) {
			cardinality = schema.CardinalityMany
		}
	case deriveCardinality(meta[relationshipTypeAttr]) != "":
		cardinality = schema.Cardinality(deriveCardinality(meta[relationshipTypeAttr]))
	case many:
		cardinality = schema.CardinalityMany
	}

	kind := meta[relationshipKindAttr]
	if kind == "" {
		kind = "Generic"
	}
	return schema.Relationship{
		Name:        name,
		Peer:        peer,
		Kind:        kind,
		Cardinality: cardinality,
		Identifier:  meta[relationshipIdentifierAttr],
	}, true
}

func normaliseRelationshipExtension(value any) map[string]string {
	raw, ok := value.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for key, val := range raw {
		canonical, ok := relationshipKeyLookup[normaliseKey(key)]
		if !ok {
			continue
		}
		if s, ok := val.(string); ok && s != "" {
			out[canonical] = s
		}
	}
	return out
}

func normaliseKey(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			builder.WriteRune(unicode.ToLower(r))
		}
	}
	return builder.String()
}

func deriveCardinality(relType string) string {
	switch strings.ToLower(relType) {
	case "belongsto", "hasone":
		return string(schema.CardinalityOne)
	case "hasmany", "belongstomany":
		return string(schema.CardinalityMany)
	default:
		return ""
	}
}
