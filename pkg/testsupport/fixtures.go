// Package testsupport holds fixture helpers shared by package tests. The
// fixtures describe a small infrastructure dataset: autonomous systems,
// organizations, groups and interfaces.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodeform/pkg/fetch"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

const (
	// SchemaFixture is the schema bundle fixture name.
	SchemaFixture = "schema.yaml"
	// DatasetFixture is the static dataset fixture name.
	DatasetFixture = "objects.yaml"
)

// FixturePath resolves name inside this package's testdata directory so
// callers in any package can share the same files.
func FixturePath(name string) string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return filepath.Join("testdata", name)
	}
	return filepath.Join(filepath.Dir(filename), "testdata", name)
}

// LoadBundle decodes the shared schema bundle, failing the test on error.
func LoadBundle(t *testing.T) schema.Bundle {
	t.Helper()

	bundle, err := LoadBundleFromPath(FixturePath(SchemaFixture))
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	return bundle
}

// LoadBundleFromPath returns a Bundle without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadBundleFromPath(path string) (schema.Bundle, error) {
	if path == "" {
		return schema.Bundle{}, errors.New("testsupport: bundle path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Bundle{}, fmt.Errorf("testsupport: read bundle: %w", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFile(path), data)
	if err != nil {
		return schema.Bundle{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc.Bundle()
}

// MustSchema returns the named node or generic from the shared bundle.
func MustSchema(t *testing.T, kind string) schema.ObjectSchema {
	t.Helper()

	node, ok := LoadBundle(t).Find(kind)
	if !ok {
		t.Fatalf("fixture schema %q not found", kind)
	}
	return node
}

// LoadStatic loads the shared dataset into a static fetcher.
func LoadStatic(t *testing.T, options ...fetch.StaticOption) *fetch.Static {
	t.Helper()

	static, err := fetch.LoadStatic(FixturePath(DatasetFixture), options...)
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	return static
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
