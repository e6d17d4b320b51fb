package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

const bundleYAML = `main: rev-1
nodes:
  - namespace: Core
    name: Tag
    attributes:
      - name: name
        kind: Text
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(bundleYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	bundle, err := New(schema.LoaderOptions{}).LoadBundle(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bundle.Hash != "rev-1" || len(bundle.Nodes) != 1 || bundle.Nodes[0].Kind != "CoreTag" {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}
}

func TestLoadFS(t *testing.T) {
	files := fstest.MapFS{"schemas/core.yaml": {Data: []byte(bundleYAML)}}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), schema.SourceFromFS("schemas/core.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "schemas/core.yaml" || doc.Format() != schema.FormatYAML {
		t.Fatalf("unexpected document %q (%s)", doc.Location(), doc.Format())
	}

	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceFromFS("schemas/core.yaml")); err == nil {
		t.Fatalf("expected error without filesystem")
	}
}

func TestLoadHTTP(t *testing.T) {
	var gotToken, gotBranch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-INFRAHUB-KEY")
		gotBranch = r.URL.Query().Get("branch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"main":"rev-2","nodes":[{"namespace":"Core","name":"Tag"}]}`))
	}))
	defer server.Close()

	src, err := schema.SourceFromURL(server.URL+"/api/schema", "feature-1")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	l := New(schema.NewLoaderOptions(
		schema.WithHTTPFallback(0),
		schema.WithHeader("X-INFRAHUB-KEY", "secret"),
	))

	bundle, err := l.LoadBundle(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bundle.Hash != "rev-2" {
		t.Fatalf("hash = %q", bundle.Hash)
	}
	if gotToken != "secret" || gotBranch != "feature-1" {
		t.Fatalf("request carried token %q branch %q", gotToken, gotBranch)
	}
}

func TestLoadHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	src, err := schema.SourceFromURL(server.URL, "")
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), src); err == nil || !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client())))
	if _, err := l.Load(context.Background(), src); err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoadHTTPReportsServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid api token"},{"message":"branch not found"}]}`))
	}))
	defer server.Close()

	src, err := schema.SourceFromURL(server.URL+"/api/schema", "feature-1")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	_, err = New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client()))).Load(context.Background(), src)

	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if status.Code != http.StatusUnauthorized || status.Message != "invalid api token; branch not found" {
		t.Fatalf("unexpected status error %+v", status)
	}
	if !strings.Contains(status.URL, "branch=feature-1") {
		t.Fatalf("status error url = %q", status.URL)
	}
}

func TestServerMessageFallsBackToText(t *testing.T) {
	if got := serverMessage([]byte("  upstream timeout\n")); got != "upstream timeout" {
		t.Fatalf("serverMessage = %q", got)
	}
	long := serverMessage([]byte(strings.Repeat("x", 300)))
	if len(long) != 203 || !strings.HasSuffix(long, "...") {
		t.Fatalf("expected truncated message, got %d bytes", len(long))
	}
}

func TestLoadRejectsNilSource(t *testing.T) {
	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}
