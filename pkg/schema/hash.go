package schema

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Hash returns a stable digest of the schema, covering its own fields and
// every attribute and relationship in name order. Declaration order does not
// affect the result.
func (s ObjectSchema) Hash() string {
	own := s
	own.Attributes = nil
	own.Relationships = nil

	sum := md5.New()
	sum.Write([]byte(digest(own)))

	attrs := append([]Attribute(nil), s.Attributes...)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	for _, attr := range attrs {
		sum.Write([]byte(attr.Hash()))
	}

	rels := append([]Relationship(nil), s.Relationships...)
	sort.Slice(rels, func(i, j int) bool { return rels[i].Name < rels[j].Name })
	for _, rel := range rels {
		sum.Write([]byte(rel.Hash()))
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// Hash returns a digest of the attribute definition.
func (a Attribute) Hash() string {
	return digest(a)
}

// Hash returns a digest of the relationship definition.
func (r Relationship) Hash() string {
	return digest(r)
}

// ComputeHash derives a bundle digest from its node and generic hashes, sorted by
// kind. Used when the server payload carries no hash.
func (b Bundle) ComputeHash() string {
	var entries []string
	for _, group := range [][]ObjectSchema{b.Nodes, b.Generics} {
		for _, node := range group {
			entries = append(entries, node.Kind+":"+node.Hash())
		}
	}
	sort.Strings(entries)
	sum := md5.New()
	for _, entry := range entries {
		sum.Write([]byte(entry))
	}
	return hex.EncodeToString(sum.Sum(nil))
}

func digest(v any) string {
	// json.Marshal orders map keys, so nested default values hash stably.
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Diff lists the attribute and relationship names that differ between two
// revisions of the same schema.
type Diff struct {
	AddedAttributes      []string
	RemovedAttributes    []string
	ChangedAttributes    []string
	AddedRelationships   []string
	RemovedRelationships []string
	ChangedRelationships []string
}

// HasDiff reports whether anything changed.
func (d Diff) HasDiff() bool {
	return len(d.AddedAttributes)+len(d.RemovedAttributes)+len(d.ChangedAttributes)+
		len(d.AddedRelationships)+len(d.RemovedRelationships)+len(d.ChangedRelationships) > 0
}

// Compare reports what next adds, removes or changes relative to prev.
func Compare(prev, next ObjectSchema) Diff {
	var d Diff

	prevAttrs := make(map[string]string, len(prev.Attributes))
	for _, attr := range prev.Attributes {
		prevAttrs[attr.Name] = attr.Hash()
	}
	nextAttrs := make(map[string]string, len(next.Attributes))
	for _, attr := range next.Attributes {
		nextAttrs[attr.Name] = attr.Hash()
	}
	d.AddedAttributes, d.RemovedAttributes, d.ChangedAttributes = compareHashes(prevAttrs, nextAttrs)

	prevRels := make(map[string]string, len(prev.Relationships))
	for _, rel := range prev.Relationships {
		prevRels[rel.Name] = rel.Hash()
	}
	nextRels := make(map[string]string, len(next.Relationships))
	for _, rel := range next.Relationships {
		nextRels[rel.Name] = rel.Hash()
	}
	d.AddedRelationships, d.RemovedRelationships, d.ChangedRelationships = compareHashes(prevRels, nextRels)
	return d
}

func compareHashes(prev, next map[string]string) (added, removed, changed []string) {
	for name, hash := range next {
		old, ok := prev[name]
		switch {
		case !ok:
			added = append(added, name)
		case old != hash:
			changed = append(changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed
}
