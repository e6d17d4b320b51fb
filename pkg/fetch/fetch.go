// Package fetch provides the data-fetch collaborator the form engine reads
// schemas, objects and peer lists through. HTTPClient talks to a running
// server; Static serves an in-memory dataset for tests and offline use.
package fetch

import (
	"context"
	"errors"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/options"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

// ErrNotFound is returned when an object or branch does not exist.
var ErrNotFound = errors.New("fetch: not found")

// Fetcher is the read side of the data layer. Every call is scoped to a
// branch; implementations treat an empty branch as the default branch.
type Fetcher interface {
	FetchObjectSchema(ctx context.Context, branch string) (schema.Bundle, error)
	FetchSchemaSummaryHash(ctx context.Context, branch string) (string, error)
	FetchObjectByKindAndID(ctx context.Context, s schema.ObjectSchema, id, branch string) (fieldvalue.RawObject, error)
	FetchPeerOptions(ctx context.Context, peer, branch string) ([]fieldvalue.Peer, error)
}

// PeerOptions binds the peer fetch of f to branch so it can feed an
// options.Resolver.
func PeerOptions(f Fetcher, branch string) options.Fetcher {
	return options.FetcherFunc(func(ctx context.Context, peer string) ([]fieldvalue.Peer, error) {
		return f.FetchPeerOptions(ctx, peer, branch)
	})
}
