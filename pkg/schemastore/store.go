// Package schemastore keeps the fetched schema of each branch in memory.
//
// A Snapshot is built completely before it is published and is never
// mutated afterwards; Refresh swaps in a new snapshot atomically, so readers
// holding the previous one keep a consistent view.
package schemastore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/erni27/imcache"
	"github.com/golang/glog"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

// DefaultBranch is used when a caller passes an empty branch name.
const DefaultBranch = "main"

// ErrUnknownKind is returned when a kind is missing from the branch schema.
var ErrUnknownKind = errors.New("schemastore: unknown kind")

// Fetcher loads schema payloads for a branch.
type Fetcher interface {
	FetchObjectSchema(ctx context.Context, branch string) (schema.Bundle, error)
	FetchSchemaSummaryHash(ctx context.Context, branch string) (string, error)
}

// Snapshot is an immutable view of one branch schema.
type Snapshot struct {
	branch string
	bundle schema.Bundle
	kinds  *imcache.Cache[string, schema.ObjectSchema]
	names  map[string]string
}

func newSnapshot(branch string, bundle schema.Bundle) *Snapshot {
	kinds := imcache.New[string, schema.ObjectSchema]()
	for _, node := range bundle.Generics {
		kinds.Set(node.Kind, node, imcache.WithNoExpiration())
	}
	for _, node := range bundle.Nodes {
		kinds.Set(node.Kind, node, imcache.WithNoExpiration())
	}
	return &Snapshot{
		branch: branch,
		bundle: bundle,
		kinds:  kinds,
		names:  bundle.KindNames(),
	}
}

// Branch returns the branch the snapshot was fetched for.
func (s *Snapshot) Branch() string { return s.branch }

// Hash returns the schema revision hash.
func (s *Snapshot) Hash() string { return s.bundle.Hash }

// Bundle returns the full schema payload.
func (s *Snapshot) Bundle() schema.Bundle { return s.bundle }

// Schema returns the node or generic schema of kind.
func (s *Snapshot) Schema(kind string) (schema.ObjectSchema, bool) {
	return s.kinds.Get(kind)
}

// KindNames returns a copy of the kind to name map.
func (s *Snapshot) KindNames() map[string]string {
	out := make(map[string]string, len(s.names))
	for kind, name := range s.names {
		out[kind] = name
	}
	return out
}

// Kinds lists the known kinds, sorted.
func (s *Snapshot) Kinds() []string {
	out := make([]string, 0, len(s.names))
	for kind := range s.names {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// ChangeFunc is notified after a branch snapshot has been replaced. prev is
// nil on the first load.
type ChangeFunc func(branch string, prev, next *Snapshot)

// Option configures a Store.
type Option func(*Store)

// WithDefaultBranch overrides the branch used for empty branch names.
func WithDefaultBranch(branch string) Option {
	return func(s *Store) {
		if branch != "" {
			s.defaultBranch = branch
		}
	}
}

// WithOnChange registers a callback invoked after each snapshot swap.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.onChange = append(s.onChange, fn)
		}
	}
}

type snapshots map[string]*Snapshot

// Store caches schema snapshots per branch.
type Store struct {
	fetcher       Fetcher
	defaultBranch string
	onChange      []ChangeFunc

	mu      sync.Mutex
	current atomic.Pointer[snapshots]
}

// New constructs a Store backed by fetcher.
func New(fetcher Fetcher, options ...Option) *Store {
	store := &Store{
		fetcher:       fetcher,
		defaultBranch: DefaultBranch,
	}
	for _, opt := range options {
		if opt != nil {
			opt(store)
		}
	}
	empty := snapshots{}
	store.current.Store(&empty)
	return store
}

// Snapshot returns the cached snapshot of branch without fetching.
func (s *Store) Snapshot(branch string) (*Snapshot, bool) {
	snap, ok := (*s.current.Load())[s.branch(branch)]
	return snap, ok
}

// Load returns the cached snapshot of branch, fetching it on first use.
func (s *Store) Load(ctx context.Context, branch string) (*Snapshot, error) {
	branch = s.branch(branch)
	if snap, ok := s.Snapshot(branch); ok {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.Snapshot(branch); ok {
		return snap, nil
	}
	return s.fetch(ctx, branch)
}

// Refresh checks the branch summary hash and refetches the schema only when
// it differs from the cached snapshot. It reports whether a new snapshot was
// published.
func (s *Store) Refresh(ctx context.Context, branch string) (*Snapshot, bool, error) {
	branch = s.branch(branch)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, cached := s.Snapshot(branch)
	if cached {
		hash, err := s.fetcher.FetchSchemaSummaryHash(ctx, branch)
		if err != nil {
			return prev, false, fmt.Errorf("schemastore: summary %s: %w", branch, err)
		}
		if hash != "" && hash == prev.Hash() {
			glog.V(2).Infof("[schemastore] %s unchanged hash=%s", branch, hash)
			return prev, false, nil
		}
		glog.V(1).Infof("[schemastore] %s hash %s -> %s, refetching", branch, prev.Hash(), hash)
	}

	next, err := s.fetch(ctx, branch)
	if err != nil {
		return prev, false, err
	}
	return next, true, nil
}

// Schema resolves kind on branch, loading the branch schema when needed.
func (s *Store) Schema(ctx context.Context, branch, kind string) (schema.ObjectSchema, *Snapshot, error) {
	snap, err := s.Load(ctx, branch)
	if err != nil {
		return schema.ObjectSchema{}, nil, err
	}
	node, ok := snap.Schema(kind)
	if !ok {
		return schema.ObjectSchema{}, snap, fmt.Errorf("%w: %s on branch %s", ErrUnknownKind, kind, snap.Branch())
	}
	return node, snap, nil
}

// Invalidate drops the cached snapshot of branch.
func (s *Store) Invalidate(branch string) {
	branch = s.branch(branch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(branch, nil)
}

// fetch loads and publishes a branch snapshot. Callers hold s.mu.
func (s *Store) fetch(ctx context.Context, branch string) (*Snapshot, error) {
	bundle, err := s.fetcher.FetchObjectSchema(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("schemastore: fetch %s: %w", branch, err)
	}
	if bundle.Hash == "" {
		bundle.Hash = bundle.ComputeHash()
	}

	next := newSnapshot(branch, bundle)
	prev, _ := s.Snapshot(branch)
	s.publish(branch, next)

	if prev != nil {
		logChanges(prev, next)
	}
	glog.V(1).Infof("[schemastore] %s loaded hash=%s kinds=%d", branch, bundle.Hash, len(next.names))
	for _, fn := range s.onChange {
		fn(branch, prev, next)
	}
	return next, nil
}

// publish swaps in a copy of the branch map with branch set to snap, or
// removed when snap is nil.
func (s *Store) publish(branch string, snap *Snapshot) {
	old := *s.current.Load()
	next := make(snapshots, len(old)+1)
	for key, value := range old {
		next[key] = value
	}
	if snap == nil {
		delete(next, branch)
	} else {
		next[branch] = snap
	}
	s.current.Store(&next)
}

func (s *Store) branch(branch string) string {
	if branch == "" {
		return s.defaultBranch
	}
	return branch
}

func logChanges(prev, next *Snapshot) {
	if !glog.V(1) {
		return
	}
	for _, kind := range next.Kinds() {
		before, ok := prev.Schema(kind)
		if !ok {
			glog.Infof("[schemastore] %s added kind %s", next.Branch(), kind)
			continue
		}
		after, _ := next.Schema(kind)
		if diff := schema.Compare(before, after); diff.HasDiff() {
			glog.Infof("[schemastore] %s changed kind %s: %+v", next.Branch(), kind, diff)
		}
	}
	for _, kind := range prev.Kinds() {
		if _, ok := next.Schema(kind); !ok {
			glog.Infof("[schemastore] %s removed kind %s", next.Branch(), kind)
		}
	}
}
