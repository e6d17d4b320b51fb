package fieldvalue

import (
	"encoding/json"
	"strconv"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

var cellKeys = []string{"value", "is_default", "is_inherited", "is_protected", "source", "owner"}

// Normalize folds an attribute cell into a FieldValue. A map is read as an
// object cell when it carries any of the cell keys; anything else, including
// maps without them, is a bare scalar. Already-normalized values come back as
// copies, so Normalize(Normalize(x)) equals Normalize(x).
func Normalize(raw any) FieldValue {
	switch cell := raw.(type) {
	case nil:
		return FieldValue{}
	case FieldValue:
		return cell.Clone()
	case *FieldValue:
		if cell == nil {
			return FieldValue{}
		}
		return cell.Clone()
	case map[string]any:
		if !isObjectCell(cell) {
			return FieldValue{Value: cell}
		}
		return FieldValue{
			Value:       cell["value"],
			IsDefault:   boolValue(cell["is_default"]),
			IsInherited: boolValue(cell["is_inherited"]),
			IsProtected: boolValue(cell["is_protected"]),
			Source:      ownerRef(cell["source"]),
			Owner:       ownerRef(cell["owner"]),
		}
	default:
		return FieldValue{Value: raw}
	}
}

// NormalizeRelationship folds a relationship cell into a FieldValue. Accepted
// shapes: {node, properties}, {edges: [...]}, bare {id, display_label}, lists
// of those, id strings or numbers, Peer, *Peer, []Peer and FieldValue.
// Protection metadata is read from "properties" or from the flattened
// _relation__ keys; for many-cardinality it comes from the first edge.
func NormalizeRelationship(raw any, cardinality schema.Cardinality) FieldValue {
	switch cell := raw.(type) {
	case nil:
		return FieldValue{}
	case FieldValue:
		return coerceCardinality(cell.Clone(), cardinality)
	case *FieldValue:
		if cell == nil {
			return FieldValue{}
		}
		return coerceCardinality(cell.Clone(), cardinality)
	}

	edges := relationshipEdges(raw)
	out := FieldValue{}
	if len(edges) > 0 {
		applyEdgeMetadata(&out, edges[0])
	}

	if cardinality.IsMany() {
		seen := make(map[string]struct{}, len(edges))
		for _, edge := range edges {
			peer, ok := edgePeer(edge)
			if !ok {
				continue
			}
			if _, dup := seen[peer.ID]; dup {
				continue
			}
			seen[peer.ID] = struct{}{}
			out.Peers = append(out.Peers, peer)
		}
		return out
	}

	for _, edge := range edges {
		if peer, ok := edgePeer(edge); ok {
			out.Peer = &peer
			break
		}
	}
	return out
}

// coerceCardinality moves a single peer into a list, or the first listed peer
// into the single slot, to match the schema cardinality.
func coerceCardinality(value FieldValue, cardinality schema.Cardinality) FieldValue {
	if cardinality.IsMany() {
		if value.Peer != nil {
			value.Peers = append([]Peer{*value.Peer}, value.Peers...)
			value.Peer = nil
		}
		return value
	}
	if value.Peer == nil && len(value.Peers) > 0 {
		first := value.Peers[0]
		value.Peer = &first
	}
	value.Peers = nil
	return value
}

// relationshipEdges flattens the accepted shapes into a list of edge values.
func relationshipEdges(raw any) []any {
	switch cell := raw.(type) {
	case map[string]any:
		if edges, ok := cell["edges"]; ok {
			return relationshipEdges(edges)
		}
		return []any{cell}
	case []any:
		return cell
	case []map[string]any:
		out := make([]any, 0, len(cell))
		for _, item := range cell {
			out = append(out, item)
		}
		return out
	case []Peer:
		out := make([]any, 0, len(cell))
		for _, item := range cell {
			out = append(out, item)
		}
		return out
	case []string:
		out := make([]any, 0, len(cell))
		for _, item := range cell {
			out = append(out, item)
		}
		return out
	default:
		return []any{raw}
	}
}

func edgePeer(edge any) (Peer, bool) {
	switch val := edge.(type) {
	case nil:
		return Peer{}, false
	case Peer:
		return val, val.ID != ""
	case *Peer:
		if val == nil {
			return Peer{}, false
		}
		return *val, val.ID != ""
	case map[string]any:
		if node, ok := val["node"]; ok {
			return edgePeer(node)
		}
		peer := Peer{ID: idString(val["id"])}
		peer.DisplayLabel, _ = val["display_label"].(string)
		peer.Typename, _ = val["__typename"].(string)
		return peer, peer.ID != ""
	default:
		id := idString(val)
		return Peer{ID: id}, id != ""
	}
}

func applyEdgeMetadata(out *FieldValue, edge any) {
	cell, ok := edge.(map[string]any)
	if !ok {
		return
	}
	if props, ok := cell["properties"].(map[string]any); ok {
		out.IsProtected = boolValue(props["is_protected"])
		out.IsInherited = boolValue(props["is_inherited"])
		out.Source = ownerRef(props["source"])
		out.Owner = ownerRef(props["owner"])
		return
	}
	if _, ok := cell["_relation__is_protected"]; ok {
		out.IsProtected = boolValue(cell["_relation__is_protected"])
		out.Source = ownerRef(cell["_relation__source"])
		out.Owner = ownerRef(cell["_relation__owner"])
		return
	}
	out.IsProtected = boolValue(cell["is_protected"])
	out.IsInherited = boolValue(cell["is_inherited"])
	out.Source = ownerRef(cell["source"])
	out.Owner = ownerRef(cell["owner"])
}

func isObjectCell(cell map[string]any) bool {
	for _, key := range cellKeys {
		if _, ok := cell[key]; ok {
			return true
		}
	}
	return false
}

func ownerRef(raw any) *OwnerRef {
	switch val := raw.(type) {
	case nil:
		return nil
	case OwnerRef:
		return &val
	case *OwnerRef:
		return cloneOwner(val)
	case map[string]any:
		if node, ok := val["node"]; ok {
			return ownerRef(node)
		}
		id := idString(val["id"])
		if id == "" {
			return nil
		}
		ref := &OwnerRef{ID: id}
		ref.DisplayLabel, _ = val["display_label"].(string)
		ref.Typename, _ = val["__typename"].(string)
		return ref
	default:
		if id := idString(val); id != "" {
			return &OwnerRef{ID: id}
		}
		return nil
	}
}

func boolValue(raw any) bool {
	switch val := raw.(type) {
	case bool:
		return val
	case string:
		parsed, err := strconv.ParseBool(val)
		return err == nil && parsed
	default:
		return false
	}
}

// idString renders ids that may arrive as strings or numbers.
func idString(raw any) string {
	switch val := raw.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
