package fieldvalue

import "github.com/goliatone/go-nodeform/pkg/schema"

// Update applies a user-entered value to original. The new value replaces
// Value (or Peer/Peers when a peer selection is passed; a selection of one
// shape clears the other), IsDefault is cleared
// because user input never counts as a default, and every other piece of
// metadata is carried over. Applying the same update twice yields the same
// result as applying it once.
func Update(newValue any, original FieldValue) FieldValue {
	out := original.Clone()
	out.IsDefault = false

	switch val := newValue.(type) {
	case FieldValue:
		out.Value = val.Value
		out.Peer = clonePeer(val.Peer)
		out.Peers = clonePeers(val.Peers)
	case *FieldValue:
		if val == nil {
			out.Value, out.Peer, out.Peers = nil, nil, nil
			break
		}
		out.Value = val.Value
		out.Peer = clonePeer(val.Peer)
		out.Peers = clonePeers(val.Peers)
	case Peer:
		out.Peer, out.Peers = &val, nil
	case *Peer:
		out.Peer, out.Peers = clonePeer(val), nil
	case []Peer:
		out.Peer, out.Peers = nil, clonePeers(val)
	default:
		out.Value = newValue
	}
	return out
}

// UpdateRelationship applies a raw peer selection (any shape accepted by
// NormalizeRelationship) to original, keeping its protection metadata.
func UpdateRelationship(selection any, original FieldValue, cardinality schema.Cardinality) FieldValue {
	selected := NormalizeRelationship(selection, cardinality)
	out := original.Clone()
	out.IsDefault = false
	out.Value = nil
	out.Peer = selected.Peer
	out.Peers = selected.Peers
	return out
}
