package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

// Dataset is the on-disk shape read by LoadStatic. Schema points at a schema
// bundle document relative to the dataset file; Objects lists object payloads
// per kind; Peers lists the selectable peers per peer name.
type Dataset struct {
	Schema  string                      `json:"schema" yaml:"schema"`
	Objects map[string][]map[string]any `json:"objects" yaml:"objects"`
	Peers   map[string][]map[string]any `json:"peers" yaml:"peers"`
}

// StaticOption configures a Static fetcher.
type StaticOption func(*Static)

// WithPeerError makes FetchPeerOptions fail for peer.
func WithPeerError(peer string, err error) StaticOption {
	return func(s *Static) {
		s.peerErrors[peer] = err
	}
}

// Static serves a fixed dataset. Every branch sees the same data.
type Static struct {
	bundle     schema.Bundle
	objects    map[string]map[string]fieldvalue.RawObject
	peers      map[string][]fieldvalue.Peer
	peerErrors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

var _ Fetcher = (*Static)(nil)

// NewStatic builds a Static fetcher from decoded values.
func NewStatic(bundle schema.Bundle, objects map[string][]fieldvalue.RawObject, peers map[string][]fieldvalue.Peer, options ...StaticOption) *Static {
	s := &Static{
		bundle:     bundle,
		objects:    make(map[string]map[string]fieldvalue.RawObject, len(objects)),
		peers:      make(map[string][]fieldvalue.Peer, len(peers)),
		peerErrors: map[string]error{},
		calls:      map[string]int{},
	}
	if s.bundle.Hash == "" {
		s.bundle.Hash = s.bundle.ComputeHash()
	}
	for kind, list := range objects {
		byID := make(map[string]fieldvalue.RawObject, len(list))
		for _, obj := range list {
			byID[obj.ID()] = obj
		}
		s.objects[kind] = byID
	}
	for peer, list := range peers {
		s.peers[peer] = append([]fieldvalue.Peer(nil), list...)
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoadStatic reads a dataset file (JSON or YAML) and the schema bundle it
// references.
func LoadStatic(path string, options ...StaticOption) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fetch: read dataset: %w", err)
	}
	var ds Dataset
	if schema.DetectFormat(raw) == schema.FormatJSON {
		err = json.Unmarshal(raw, &ds)
	} else {
		err = yaml.Unmarshal(raw, &ds)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: decode dataset: %w", err)
	}
	if ds.Schema == "" {
		return nil, fmt.Errorf("fetch: dataset %s has no schema", path)
	}

	schemaPath := ds.Schema
	if !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(filepath.Dir(path), schemaPath)
	}
	rawSchema, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("fetch: read schema: %w", err)
	}
	bundle, err := schema.ParseBundle(rawSchema, schema.DetectFormat(rawSchema))
	if err != nil {
		return nil, fmt.Errorf("fetch: decode schema: %w", err)
	}

	objects := make(map[string][]fieldvalue.RawObject, len(ds.Objects))
	for kind, list := range ds.Objects {
		for _, obj := range list {
			objects[kind] = append(objects[kind], fieldvalue.RawObject(obj))
		}
	}
	peers := make(map[string][]fieldvalue.Peer, len(ds.Peers))
	for name, list := range ds.Peers {
		edges := make([]any, 0, len(list))
		for _, item := range list {
			edges = append(edges, item)
		}
		peers[name] = fieldvalue.NormalizeRelationship(edges, schema.CardinalityMany).Peers
	}
	return NewStatic(bundle, objects, peers, options...), nil
}

// FetchObjectSchema returns the dataset schema.
func (s *Static) FetchObjectSchema(ctx context.Context, _ string) (schema.Bundle, error) {
	if err := s.enter(ctx, "schema"); err != nil {
		return schema.Bundle{}, err
	}
	return s.bundle, nil
}

// FetchSchemaSummaryHash returns the dataset schema hash.
func (s *Static) FetchSchemaSummaryHash(ctx context.Context, _ string) (string, error) {
	if err := s.enter(ctx, "summary"); err != nil {
		return "", err
	}
	return s.bundle.Hash, nil
}

// FetchObjectByKindAndID returns the stored object.
func (s *Static) FetchObjectByKindAndID(ctx context.Context, node schema.ObjectSchema, id, _ string) (fieldvalue.RawObject, error) {
	if err := s.enter(ctx, "object:"+node.Kind); err != nil {
		return nil, err
	}
	obj, ok := s.objects[node.Kind][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, node.Kind, id)
	}
	return obj, nil
}

// FetchPeerOptions returns the stored peers of peer.
func (s *Static) FetchPeerOptions(ctx context.Context, peer, _ string) ([]fieldvalue.Peer, error) {
	if err := s.enter(ctx, "peer:"+peer); err != nil {
		return nil, err
	}
	if err, ok := s.peerErrors[peer]; ok {
		return nil, err
	}
	return append([]fieldvalue.Peer(nil), s.peers[peer]...), nil
}

// Calls reports how many times each call was made, keyed by "schema",
// "summary", "object:<kind>" or "peer:<name>".
func (s *Static) Calls() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.calls))
	for key, n := range s.calls {
		out[key] = n
	}
	return out
}

// Objects lists the ids stored for kind, sorted.
func (s *Static) Objects(kind string) []string {
	out := make([]string, 0, len(s.objects[kind]))
	for id := range s.objects[kind] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Static) enter(ctx context.Context, call string) error {
	s.mu.Lock()
	s.calls[call]++
	s.mu.Unlock()
	return ctx.Err()
}
