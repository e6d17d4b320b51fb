package nodeform_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodeform"
	"github.com/goliatone/go-nodeform/pkg/fetch"
	"github.com/goliatone/go-nodeform/pkg/model"
	"github.com/goliatone/go-nodeform/pkg/mutation"
	"github.com/goliatone/go-nodeform/pkg/options"
	"github.com/goliatone/go-nodeform/pkg/schema"
	"github.com/goliatone/go-nodeform/pkg/session"
	"github.com/goliatone/go-nodeform/pkg/testsupport"
)

func TestCompileAndDiffRoundTrip(t *testing.T) {
	ctx := testsupport.Context()
	static := testsupport.LoadStatic(t)
	bundle := testsupport.LoadBundle(t)
	node, _ := bundle.Find("InfraAutonomousSystem")

	object, err := static.FetchObjectByKindAndID(ctx, node, "as-1", "main")
	if err != nil {
		t.Fatalf("fetch object: %v", err)
	}
	peers := options.New(fetch.PeerOptions(static, "main")).Resolve(ctx, []string{"Organization", "Group"})

	form := nodeform.CompileFormStructure(node, bundle.KindNames(), object,
		nodeform.WithPeerOptions(peers),
		nodeform.WithCompilerOptions(model.WithLabeler(func(name string) string { return "[" + name + "]" })),
	)
	if form.Create {
		t.Fatalf("expected edit form")
	}
	desc, ok := form.Field("description")
	if !ok || desc.Label != "[description]" {
		t.Fatalf("unexpected description field: %+v", desc)
	}
	org, _ := form.Field("organization")
	if len(org.Options) != 3 {
		t.Fatalf("organization options = %d, want 3", len(org.Options))
	}

	unchanged := map[string]any{}
	for _, field := range form.Fields {
		if field.IsRelationship() {
			unchanged[field.Name] = field.Value.PeerIDs()
			continue
		}
		unchanged[field.Name] = field.Value.Value
	}
	if res := nodeform.ComputeMutationArguments(node, unchanged, mutation.ModeUpdate, object); !res.Empty() || res.Blocked() {
		t.Fatalf("unchanged form produced %+v", res)
	}

	unchanged["organization"] = "org-2"
	res := nodeform.ComputeMutationArguments(node, unchanged, mutation.ModeUpdate, object)
	want := []mutation.Argument{{Name: "organization", Value: mutation.PeerRef{ID: "org-2"}}}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeCreateSkipsDefaults(t *testing.T) {
	iface := testsupport.MustSchema(t, "InfraInterface")

	res := nodeform.ComputeMutationArguments(iface, map[string]any{
		"name":  "eth0",
		"mtu":   "1500",
		"speed": "1000",
	}, mutation.ModeCreate, nil)
	if res.Blocked() {
		t.Fatalf("unexpected errors: %v", res.Err())
	}
	want := map[string]any{
		"name":  map[string]any{"value": "eth0"},
		"speed": map[string]any{"value": int64(1000)},
	}
	if diff := cmp.Diff(want, res.Payload()); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSessionLoadsForm(t *testing.T) {
	sess := nodeform.NewSession(testsupport.LoadStatic(t))
	state, err := sess.Load(context.Background(), session.Context{Branch: "main", Kind: "InfraAutonomousSystem", ObjectID: "as-1"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Form.Fields) != 6 {
		t.Fatalf("fields = %d, want 6", len(state.Form.Fields))
	}
}

func TestLoadBundleSources(t *testing.T) {
	ctx := context.Background()

	native, err := nodeform.LoadBundle(ctx, schema.SourceFromFile(testsupport.FixturePath(testsupport.SchemaFixture)))
	if err != nil {
		t.Fatalf("load native: %v", err)
	}
	if _, ok := native.Find("CoreGroup"); !ok {
		t.Fatalf("native bundle missing CoreGroup")
	}

	data, err := os.ReadFile(filepath.Join("pkg", "openapi", "testdata", "infra.yaml"))
	if err != nil {
		t.Fatalf("read openapi fixture: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
	}))
	defer server.Close()

	src, err := schema.SourceFromURL(server.URL, "")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	imported, err := nodeform.LoadBundle(ctx, src, schema.WithHTTPFallback(0))
	if err != nil {
		t.Fatalf("load openapi: %v", err)
	}
	if _, ok := imported.Find("AutonomousSystem"); !ok {
		t.Fatalf("imported bundle missing AutonomousSystem")
	}
}
