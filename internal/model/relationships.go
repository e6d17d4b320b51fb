package model

import (
	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/options"
)

// withSelectedPeers appends the current selections that the option list does
// not contain, so an existing edge stays selectable even when the peer list
// was filtered, truncated or failed to load. The shared option slice is never
// modified.
func withSelectedPeers(opts []options.Option, value fieldvalue.FieldValue) []options.Option {
	var selected []fieldvalue.Peer
	if value.Peer != nil {
		selected = append(selected, *value.Peer)
	}
	selected = append(selected, value.Peers...)
	if len(selected) == 0 {
		return opts
	}

	known := make(map[string]struct{}, len(opts))
	for _, opt := range opts {
		known[opt.Value] = struct{}{}
	}

	out := opts
	copied := false
	for _, peer := range selected {
		if _, ok := known[peer.ID]; ok {
			continue
		}
		if !copied {
			out = append(make([]options.Option, 0, len(opts)+len(selected)), opts...)
			copied = true
		}
		label := peer.DisplayLabel
		if label == "" {
			label = peer.ID
		}
		out = append(out, options.Option{Value: peer.ID, Label: label})
		known[peer.ID] = struct{}{}
	}
	return out
}
