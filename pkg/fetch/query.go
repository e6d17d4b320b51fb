package fetch

import (
	"strings"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

const (
	ownerFields = "id display_label __typename"
	peerFields  = "id display_label __typename"
)

// objectQuery renders the query returning one object of s with every
// attribute cell and relationship edge the form needs.
func objectQuery(s schema.ObjectSchema) string {
	var b strings.Builder
	b.WriteString("query ($ids: [ID]) { ")
	b.WriteString(s.Kind)
	b.WriteString("(ids: $ids) { edges { node { id display_label ")
	for _, attr := range s.Attributes {
		b.WriteString(attr.Name)
		b.WriteString(" { value is_default is_inherited is_protected source { ")
		b.WriteString(ownerFields)
		b.WriteString(" } owner { ")
		b.WriteString(ownerFields)
		b.WriteString(" } } ")
	}
	for _, rel := range s.Relationships {
		b.WriteString(rel.Name)
		if rel.IsMany() {
			b.WriteString(" { edges { ")
			writeEdge(&b)
			b.WriteString(" } } ")
			continue
		}
		b.WriteString(" { ")
		writeEdge(&b)
		b.WriteString(" } ")
	}
	b.WriteString("} } } }")
	return b.String()
}

func writeEdge(b *strings.Builder) {
	b.WriteString("node { ")
	b.WriteString(peerFields)
	b.WriteString(" } properties { is_protected source { ")
	b.WriteString(ownerFields)
	b.WriteString(" } owner { ")
	b.WriteString(ownerFields)
	b.WriteString(" } }")
}

// peerQuery renders the query listing every node of a peer.
func peerQuery(peer string) string {
	return "query { " + peer + " { edges { node { " + peerFields + " } } } }"
}
