package fieldvalue

import (
	"reflect"
	"strings"
)

// RawObject is an object payload as returned by the data-fetch layer, keyed by
// attribute or relationship name.
type RawObject map[string]any

// ID returns the object's id when present.
func (o RawObject) ID() string {
	if o == nil {
		return ""
	}
	return idString(o["id"])
}

// DisplayLabel returns the object's display label when present.
func (o RawObject) DisplayLabel() string {
	if o == nil {
		return ""
	}
	label, _ := o["display_label"].(string)
	return label
}

// OwnerRef references the node that is the source or owner of a value.
type OwnerRef struct {
	ID           string `json:"id"`
	DisplayLabel string `json:"display_label,omitempty"`
	Typename     string `json:"__typename,omitempty"`
}

// Peer is one related node of a relationship field.
type Peer struct {
	ID           string `json:"id"`
	DisplayLabel string `json:"display_label,omitempty"`
	Typename     string `json:"__typename,omitempty"`
}

// FieldValue is the current value of a form field plus its origin and
// protection metadata. Attribute fields use Value; relationship fields use
// Peer (cardinality one) or Peers (cardinality many, in the order returned by
// the originating query).
type FieldValue struct {
	Value       any       `json:"value"`
	IsDefault   bool      `json:"is_default"`
	IsInherited bool      `json:"is_inherited"`
	IsProtected bool      `json:"is_protected"`
	Source      *OwnerRef `json:"source,omitempty"`
	Owner       *OwnerRef `json:"owner,omitempty"`
	Peer        *Peer     `json:"peer,omitempty"`
	Peers       []Peer    `json:"peers,omitempty"`
}

// Clone returns a deep copy of the references held by the value. Value itself
// is copied shallowly; scalars are immutable and composite JSON values are
// never mutated by this package.
func (f FieldValue) Clone() FieldValue {
	out := f
	out.Source = cloneOwner(f.Source)
	out.Owner = cloneOwner(f.Owner)
	out.Peer = clonePeer(f.Peer)
	out.Peers = clonePeers(f.Peers)
	return out
}

// IsEmpty reports whether the field holds nothing: no peers and an empty
// scalar.
func (f FieldValue) IsEmpty() bool {
	return f.Peer == nil && len(f.Peers) == 0 && IsEmptyValue(f.Value)
}

// PeerIDs returns the ids of the selected peers in order.
func (f FieldValue) PeerIDs() []string {
	if f.Peer != nil {
		return []string{f.Peer.ID}
	}
	if len(f.Peers) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.Peers))
	for _, peer := range f.Peers {
		out = append(out, peer.ID)
	}
	return out
}

// IsEmptyValue reports whether v is nil, a blank string, or an empty list or
// map.
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func cloneOwner(ref *OwnerRef) *OwnerRef {
	if ref == nil {
		return nil
	}
	out := *ref
	return &out
}

func clonePeer(peer *Peer) *Peer {
	if peer == nil {
		return nil
	}
	out := *peer
	return &out
}

func clonePeers(peers []Peer) []Peer {
	if len(peers) == 0 {
		return nil
	}
	return append([]Peer(nil), peers...)
}
