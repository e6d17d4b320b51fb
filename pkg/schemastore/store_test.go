package schemastore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

type stubFetcher struct {
	mu          sync.Mutex
	bundles     map[string]schema.Bundle
	summaryErr  error
	fetchCalls  int
	summaryCall int
}

func (s *stubFetcher) FetchObjectSchema(_ context.Context, branch string) (schema.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	bundle, ok := s.bundles[branch]
	if !ok {
		return schema.Bundle{}, errors.New("branch not found")
	}
	return bundle, nil
}

func (s *stubFetcher) FetchSchemaSummaryHash(_ context.Context, branch string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryCall++
	if s.summaryErr != nil {
		return "", s.summaryErr
	}
	return s.bundles[branch].Hash, nil
}

func (s *stubFetcher) set(branch string, bundle schema.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[branch] = bundle
}

func bundle(hash string, attrs ...string) schema.Bundle {
	node := schema.ObjectSchema{Kind: "InfraAutonomousSystem", Name: "AutonomousSystem"}
	for _, name := range attrs {
		node.Attributes = append(node.Attributes, schema.Attribute{Name: name, Kind: schema.KindText})
	}
	return schema.Bundle{
		Hash:     hash,
		Nodes:    []schema.ObjectSchema{node},
		Generics: []schema.ObjectSchema{{Kind: "CoreGroup", Name: "Group"}},
	}
}

func TestLoadCachesPerBranch(t *testing.T) {
	fetcher := &stubFetcher{bundles: map[string]schema.Bundle{"main": bundle("h1", "name")}}
	store := New(fetcher)

	first, err := store.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := store.Load(context.Background(), "main")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached snapshot to be reused")
	}
	if fetcher.fetchCalls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.fetchCalls)
	}

	want := map[string]string{"InfraAutonomousSystem": "AutonomousSystem", "CoreGroup": "Group"}
	if diff := cmp.Diff(want, first.KindNames()); diff != "" {
		t.Fatalf("kind names mismatch (-want +got):\n%s", diff)
	}
	if _, ok := first.Schema("CoreGroup"); !ok {
		t.Fatalf("expected generics to be cached")
	}
}

func TestRefreshSkipsFetchWhenHashMatches(t *testing.T) {
	fetcher := &stubFetcher{bundles: map[string]schema.Bundle{"main": bundle("h1", "name")}}
	store := New(fetcher)
	if _, err := store.Load(context.Background(), "main"); err != nil {
		t.Fatalf("load: %v", err)
	}

	_, changed, err := store.Refresh(context.Background(), "main")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if changed {
		t.Fatalf("expected unchanged schema")
	}
	if fetcher.fetchCalls != 1 || fetcher.summaryCall != 1 {
		t.Fatalf("unexpected calls: fetch=%d summary=%d", fetcher.fetchCalls, fetcher.summaryCall)
	}
}

func TestRefreshSwapsSnapshotOnHashMismatch(t *testing.T) {
	fetcher := &stubFetcher{bundles: map[string]schema.Bundle{"main": bundle("h1", "name")}}
	var notified []string
	store := New(fetcher, WithOnChange(func(branch string, prev, next *Snapshot) {
		if prev != nil {
			notified = append(notified, prev.Hash()+"->"+next.Hash())
		}
	}))

	old, err := store.Load(context.Background(), "main")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	fetcher.set("main", bundle("h2", "name", "asn"))
	next, changed, err := store.Refresh(context.Background(), "main")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !changed || next.Hash() != "h2" {
		t.Fatalf("expected new snapshot h2, got changed=%v hash=%s", changed, next.Hash())
	}

	oldSchema, _ := old.Schema("InfraAutonomousSystem")
	if len(oldSchema.Attributes) != 1 {
		t.Fatalf("previous snapshot was mutated: %+v", oldSchema.Attributes)
	}
	current, _ := store.Snapshot("main")
	if current != next {
		t.Fatalf("store did not publish refreshed snapshot")
	}
	if diff := cmp.Diff([]string{"h1->h2"}, notified); diff != "" {
		t.Fatalf("change notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshKeepsSnapshotOnSummaryError(t *testing.T) {
	fetcher := &stubFetcher{bundles: map[string]schema.Bundle{"main": bundle("h1")}}
	store := New(fetcher)
	old, _ := store.Load(context.Background(), "main")

	fetcher.summaryErr = errors.New("timeout")
	snap, changed, err := store.Refresh(context.Background(), "main")
	if err == nil {
		t.Fatalf("expected refresh error")
	}
	if changed || snap != old {
		t.Fatalf("expected previous snapshot to be kept")
	}
}

func TestSchemaUnknownKind(t *testing.T) {
	store := New(&stubFetcher{bundles: map[string]schema.Bundle{"dev": bundle("h1")}}, WithDefaultBranch("dev"))

	if _, _, err := store.Schema(context.Background(), "", "InfraAutonomousSystem"); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, _, err := store.Schema(context.Background(), "", "InfraDevice"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestLoadComputesMissingHash(t *testing.T) {
	b := bundle("", "name")
	store := New(&stubFetcher{bundles: map[string]schema.Bundle{"main": b}})

	snap, err := store.Load(context.Background(), "main")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Hash() == "" || snap.Hash() != b.ComputeHash() {
		t.Fatalf("expected computed hash, got %q", snap.Hash())
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	fetcher := &stubFetcher{bundles: map[string]schema.Bundle{"main": bundle("h1")}}
	store := New(fetcher)
	_, _ = store.Load(context.Background(), "main")

	store.Invalidate("main")
	if _, ok := store.Snapshot("main"); ok {
		t.Fatalf("expected snapshot to be dropped")
	}
	_, _ = store.Load(context.Background(), "main")
	if fetcher.fetchCalls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d fetches", fetcher.fetchCalls)
	}
}

func TestConcurrentLoadFetchesOnce(t *testing.T) {
	fetcher := &stubFetcher{bundles: map[string]schema.Bundle{"main": bundle("h1")}}
	store := New(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Load(context.Background(), "main"); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()
	if fetcher.fetchCalls != 1 {
		t.Fatalf("expected a single fetch, got %d", fetcher.fetchCalls)
	}
}
