package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-nodeform/pkg/fetch"
	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/model"
	"github.com/goliatone/go-nodeform/pkg/mutation"
	"github.com/goliatone/go-nodeform/pkg/options"
	"github.com/goliatone/go-nodeform/pkg/schema"
	"github.com/goliatone/go-nodeform/pkg/schemastore"
)

// ErrNoForm is returned by Submit before any form was loaded.
var ErrNoForm = errors.New("session: no form loaded")

// Context identifies what a form edits. An empty ObjectID means a create
// form. A zero At means the branch head.
type Context struct {
	Branch   string
	At       time.Time
	Kind     string
	ObjectID string
}

// Create reports whether the context describes a create form.
func (c Context) Create() bool {
	return c.ObjectID == ""
}

// Equal reports whether both contexts address the same form.
func (c Context) Equal(other Context) bool {
	return c.Branch == other.Branch && c.At.Equal(other.At) && c.Kind == other.Kind && c.ObjectID == other.ObjectID
}

func (c Context) String() string {
	at := "head"
	if !c.At.IsZero() {
		at = c.At.UTC().Format(time.RFC3339)
	}
	id := c.ObjectID
	if id == "" {
		id = "new"
	}
	return fmt.Sprintf("%s@%s/%s/%s", c.Branch, at, c.Kind, id)
}

// StaleContextError reports a load or submission whose context was
// superseded before it completed.
type StaleContextError struct {
	Requested Context
	Current   Context
}

func (e *StaleContextError) Error() string {
	return fmt.Sprintf("session: context %s superseded by %s", e.Requested, e.Current)
}

// State is one loaded form plus the baseline it was compiled from.
type State struct {
	Context  Context
	Schema   schema.ObjectSchema
	Original fieldvalue.RawObject
	Form     model.Form
}

// Option customises a Session.
type Option func(*Session)

// WithSchemaStore shares a schema store between sessions.
func WithSchemaStore(store *schemastore.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithCompiler injects a custom form compiler.
func WithCompiler(compiler model.Compiler) Option {
	return func(s *Session) {
		s.compiler = compiler
	}
}

// WithResolverOptions configures the peer option resolver built per load.
func WithResolverOptions(opts ...options.ResolverOption) Option {
	return func(s *Session) {
		s.resolverOpts = append(s.resolverOpts, opts...)
	}
}

// WithOwnership supplies the check deciding whether the current user owns a
// protected value's source.
func WithOwnership(isOwner func(*fieldvalue.OwnerRef) bool) Option {
	return func(s *Session) {
		s.isOwner = isOwner
	}
}

// WithSchemaRefresh makes every Load verify the schema summary hash before
// compiling.
func WithSchemaRefresh(enabled bool) Option {
	return func(s *Session) {
		s.refresh = enabled
	}
}

// Session loads forms and computes mutations for them.
type Session struct {
	fetcher      fetch.Fetcher
	store        *schemastore.Store
	compiler     model.Compiler
	resolverOpts []options.ResolverOption
	isOwner      func(*fieldvalue.OwnerRef) bool
	refresh      bool

	generation atomic.Uint64

	mu      sync.RWMutex
	current *State
	latest  Context
}

// New constructs a Session reading through fetcher.
func New(fetcher fetch.Fetcher, opts ...Option) *Session {
	s := &Session{fetcher: fetcher}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		s.store = schemastore.New(fetcher)
	}
	if s.compiler == nil {
		s.compiler = model.NewCompiler()
	}
	return s
}

// Load fetches the schema, object and peer options for c and compiles the
// form. Object and peer fetches run concurrently. A peer fetch failure only
// disables the affected fields; an object fetch failure fails the load.
func (s *Session) Load(ctx context.Context, c Context) (*State, error) {
	gen := s.begin(c)

	snap, err := s.snapshot(ctx, c.Branch)
	if err != nil {
		return nil, err
	}
	node, ok := snap.Schema(c.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schemastore.ErrUnknownKind, c.Kind)
	}
	kindNames := snap.KindNames()

	var (
		object fieldvalue.RawObject
		peers  options.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	if !c.Create() {
		g.Go(func() error {
			obj, err := s.fetcher.FetchObjectByKindAndID(gctx, node, c.ObjectID, c.Branch)
			if err != nil {
				return fmt.Errorf("session: load %s: %w", c, err)
			}
			object = obj
			return nil
		})
	}
	g.Go(func() error {
		resolver := options.New(fetch.PeerOptions(s.fetcher, c.Branch), s.resolverOpts...)
		peers = resolver.Resolve(gctx, peerNames(node, kindNames))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	form := s.compiler.Compile(model.Input{
		Schema:    node,
		KindNames: kindNames,
		Object:    object,
		Options:   peers,
		IsOwner:   s.isOwner,
	})
	for _, warning := range form.Warnings {
		glog.Warningf("[session] %s: %v", c, warning)
	}

	state := &State{Context: c, Schema: node, Original: object, Form: form}
	if err := s.commit(gen, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Current returns the form most recently committed by Load.
func (s *Session) Current() (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Submit diffs submitted against the baseline of the current form. c must be
// the context the values were edited under; a mismatch means the user edited
// a form that has since been replaced and yields a StaleContextError.
// Submitted values for disabled fields are ignored.
func (s *Session) Submit(c Context, submitted map[string]any) (mutation.Result, error) {
	state, ok := s.Current()
	if !ok {
		return mutation.Result{}, ErrNoForm
	}
	if !state.Context.Equal(c) {
		return mutation.Result{}, &StaleContextError{Requested: c, Current: state.Context}
	}

	editable := make(map[string]any, len(submitted))
	for name, value := range submitted {
		field, ok := state.Form.Field(name)
		if !ok {
			glog.V(1).Infof("[session] %s: ignoring value for %s, not part of the form", c, name)
			continue
		}
		if field.Disabled {
			glog.V(1).Infof("[session] %s: ignoring value for disabled field %s (%s)", c, name, field.DisabledReason)
			continue
		}
		editable[name] = value
	}

	mode := mutation.ModeUpdate
	if c.Create() {
		mode = mutation.ModeCreate
	}
	return mutation.Compute(formSchema(state.Schema, state.Form), editable, mode, state.Original), nil
}

// formSchema restricts node to the fields the compiled form shows. Fields the
// compiler dropped, such as relationships to a peer kind missing from the
// schema, cannot be edited and do not gate submission.
func formSchema(node schema.ObjectSchema, form model.Form) schema.ObjectSchema {
	out := node
	out.Attributes = nil
	for _, attr := range node.Attributes {
		if _, ok := form.Field(attr.Name); ok {
			out.Attributes = append(out.Attributes, attr)
		}
	}
	out.Relationships = nil
	for _, rel := range node.Relationships {
		if _, ok := form.Field(rel.Name); ok {
			out.Relationships = append(out.Relationships, rel)
		}
	}
	return out
}

func (s *Session) begin(c Context) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = c
	return s.generation.Add(1)
}

func (s *Session) commit(gen uint64, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation.Load() {
		glog.V(1).Infof("[session] discarding stale load %s (generation %d, current %d)", state.Context, gen, s.generation.Load())
		return &StaleContextError{Requested: state.Context, Current: s.latest}
	}
	s.current = state
	return nil
}

func (s *Session) snapshot(ctx context.Context, branch string) (*schemastore.Snapshot, error) {
	if s.refresh {
		snap, _, err := s.store.Refresh(ctx, branch)
		if err != nil && snap != nil {
			glog.Warningf("[session] schema refresh %s: %v; using cached schema", branch, err)
			return snap, nil
		}
		return snap, err
	}
	return s.store.Load(ctx, branch)
}

// peerNames lists the peer names the relationships of node need options for.
func peerNames(node schema.ObjectSchema, kindNames map[string]string) []string {
	out := make([]string, 0, len(node.Relationships))
	for _, rel := range node.Relationships {
		if name, ok := kindNames[rel.Peer]; ok {
			out = append(out, name)
		}
	}
	return out
}
