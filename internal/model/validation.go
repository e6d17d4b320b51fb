package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

var errSchemaKindMissing = errors.New("model builder: schema kind is required")

// ValidateSchema checks the structural assumptions Compile relies on: a kind,
// unique field names across attributes and relationships, and known
// cardinalities. Compile itself tolerates violations; callers loading schemas
// from untrusted sources can reject them up front.
func ValidateSchema(s schema.ObjectSchema) error {
	if s.Kind == "" {
		return errSchemaKindMissing
	}
	seen := make(map[string]struct{}, len(s.Attributes)+len(s.Relationships))
	for _, ref := range s.Fields() {
		if ref.Name == "" {
			return fmt.Errorf("model builder: %s declares a field without name", s.Kind)
		}
		if _, dup := seen[ref.Name]; dup {
			return fmt.Errorf("model builder: %s declares field %q twice", s.Kind, ref.Name)
		}
		seen[ref.Name] = struct{}{}

		if rel := ref.Relationship; rel != nil {
			switch schema.Cardinality(strings.ToLower(strings.TrimSpace(string(rel.Cardinality)))) {
			case schema.CardinalityOne, schema.CardinalityMany, "":
			default:
				return fmt.Errorf("model builder: relationship %q has unknown cardinality %q", rel.Name, rel.Cardinality)
			}
			if rel.Peer == "" {
				return fmt.Errorf("model builder: relationship %q has no peer", rel.Name)
			}
		}
	}
	return nil
}
