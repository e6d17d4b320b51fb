package options

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
)

const defaultConcurrency = 4

// Option is one selectable peer: the peer id and its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Fetcher loads the selectable peers of one peer kind.
type Fetcher interface {
	FetchPeerOptions(ctx context.Context, peer string) ([]fieldvalue.Peer, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, peer string) ([]fieldvalue.Peer, error)

// FetchPeerOptions calls f.
func (f FetcherFunc) FetchPeerOptions(ctx context.Context, peer string) ([]fieldvalue.Peer, error) {
	return f(ctx, peer)
}

// PeerFetchError records that the option list for one peer kind could not be
// loaded. Fields pointing at that peer are disabled rather than failing the
// form.
type PeerFetchError struct {
	Peer string
	Err  error
}

func (e *PeerFetchError) Error() string {
	return fmt.Sprintf("options: fetch peer %s: %v", e.Peer, e.Err)
}

func (e *PeerFetchError) Unwrap() error {
	return e.Err
}

// Result holds the option lists of every requested peer plus a per-peer error
// for the ones that failed.
type Result struct {
	Options map[string][]Option
	Errors  map[string]error
}

// For returns the options for peer and the error recorded for it, if any.
// A peer with an error has no options.
func (r Result) For(peer string) ([]Option, error) {
	if err, ok := r.Errors[peer]; ok {
		return nil, err
	}
	return r.Options[peer], nil
}

// Failed lists the peers whose fetch failed, sorted.
func (r Result) Failed() []string {
	out := make([]string, 0, len(r.Errors))
	for peer := range r.Errors {
		out = append(out, peer)
	}
	sort.Strings(out)
	return out
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConcurrency bounds how many peer kinds are fetched at once.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLabelPolicy replaces the markup policy applied to display labels. Pass
// nil to keep labels verbatim.
func WithLabelPolicy(policy *bluemonday.Policy) ResolverOption {
	return func(r *Resolver) {
		r.policy = policy
		r.policySet = true
	}
}

// Resolver fetches and shapes selectable-peer option lists.
type Resolver struct {
	fetcher     Fetcher
	concurrency int
	policy      *bluemonday.Policy
	policySet   bool
}

// New constructs a Resolver backed by fetcher.
func New(fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{fetcher: fetcher, concurrency: defaultConcurrency}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if !r.policySet {
		r.policy = labelPolicy()
	}
	return r
}

// Resolve fetches every distinct peer concurrently and joins the results. A
// failing peer never prevents the others from resolving; its error is
// recorded in Result.Errors and it gets no options.
func (r *Resolver) Resolve(ctx context.Context, peers []string) Result {
	names := distinct(peers)
	result := Result{
		Options: make(map[string][]Option, len(names)),
		Errors:  make(map[string]error),
	}
	if len(names) == 0 {
		return result
	}

	lists := make([][]Option, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			lists[i], errs[i] = r.resolveOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range names {
		if errs[i] != nil {
			result.Errors[name] = &PeerFetchError{Peer: name, Err: errs[i]}
			continue
		}
		result.Options[name] = lists[i]
	}
	return result
}

func (r *Resolver) resolveOne(ctx context.Context, peer string) ([]Option, error) {
	if r.fetcher == nil {
		return nil, fmt.Errorf("options: no fetcher configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	peers, err := r.fetcher.FetchPeerOptions(ctx, peer)
	if err != nil {
		return nil, err
	}
	return r.Shape(peers), nil
}

// Shape deduplicates peers by id (first occurrence wins), cleans their labels
// and orders them by label case-insensitively, then by id.
func (r *Resolver) Shape(peers []fieldvalue.Peer) []Option {
	if len(peers) == 0 {
		return []Option{}
	}

	type keyed struct {
		option Option
		key    string
	}

	caser := cases.Fold()
	seen := make(map[string]struct{}, len(peers))
	items := make([]keyed, 0, len(peers))
	for _, peer := range peers {
		id := strings.TrimSpace(peer.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		label := r.cleanLabel(peer.DisplayLabel)
		if label == "" {
			label = id
		}
		items = append(items, keyed{
			option: Option{Value: id, Label: label},
			key:    caser.String(label),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].key != items[j].key {
			return items[i].key < items[j].key
		}
		return items[i].option.Value < items[j].option.Value
	})

	out := make([]Option, 0, len(items))
	for _, item := range items {
		out = append(out, item.option)
	}
	return out
}

func (r *Resolver) cleanLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" || r.policy == nil {
		return label
	}
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(label)))
}

var (
	labelPolicyOnce sync.Once
	sharedPolicy    *bluemonday.Policy
)

// labelPolicy strips every element; labels render as plain text.
func labelPolicy() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		sharedPolicy = bluemonday.StrictPolicy()
	})
	return sharedPolicy
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
