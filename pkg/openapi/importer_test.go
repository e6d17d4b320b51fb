package openapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "infra.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

func TestImportComponents(t *testing.T) {
	bundle, err := Import(context.Background(), loadFixture(t), WithNamespace("Infra"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	var kinds []string
	for _, node := range bundle.Nodes {
		kinds = append(kinds, node.Kind)
	}
	if diff := cmp.Diff([]string{"InfraAutonomousSystem", "InfraGroup", "InfraOrganization"}, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if bundle.Hash == "" {
		t.Fatalf("expected computed hash")
	}

	as, _ := bundle.Find("InfraAutonomousSystem")
	if as.Label != "Autonomous System" {
		t.Fatalf("label = %q", as.Label)
	}
	if diff := cmp.Diff([]string{"name__value"}, as.DisplayLabels); diff != "" {
		t.Fatalf("display labels mismatch (-want +got):\n%s", diff)
	}

	var fields []string
	for _, ref := range as.Fields() {
		fields = append(fields, ref.Name)
	}
	// organization has no explicit weight: it sits at its sorted position.
	want := []string{"name", "asn", "description", "member_of_groups", "tags", "organization"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestImportAttributes(t *testing.T) {
	bundle, err := Import(context.Background(), loadFixture(t), WithNamespace("Infra"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	as, _ := bundle.Find("InfraAutonomousSystem")

	if _, ok := as.Attribute("id"); ok {
		t.Fatalf("read-only properties must be skipped")
	}
	name, _ := as.Attribute("name")
	if name.Kind != schema.KindText || !name.Unique || name.Optional || name.MaxLength == nil || *name.MaxLength != 64 {
		t.Fatalf("name attribute mismatch: %+v", name)
	}
	asn, _ := as.Attribute("asn")
	if asn.Kind != schema.KindNumber || asn.Optional {
		t.Fatalf("asn attribute mismatch: %+v", asn)
	}
	description, _ := as.Attribute("description")
	if description.Kind != schema.KindTextArea || !description.Optional {
		t.Fatalf("description attribute mismatch: %+v", description)
	}

	org, _ := bundle.Find("InfraOrganization")
	website, _ := org.Attribute("website")
	if website.Kind != schema.KindURL {
		t.Fatalf("website kind = %q", website.Kind)
	}
	orgName, _ := org.Attribute("name")
	if orgName.Regex != "^[A-Za-z ]+$" {
		t.Fatalf("regex = %q", orgName.Regex)
	}

	group, _ := bundle.Find("InfraGroup")
	status, _ := group.Attribute("status")
	if diff := cmp.Diff([]any{"active", "retired"}, status.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	if status.DefaultValue != "active" || status.Mandatory() {
		t.Fatalf("status default mismatch: %+v", status)
	}
}

func TestImportRelationships(t *testing.T) {
	bundle, err := Import(context.Background(), loadFixture(t), WithNamespace("Infra"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	as, _ := bundle.Find("InfraAutonomousSystem")

	want := []schema.Relationship{
		{Name: "member_of_groups", Peer: "InfraGroup", Kind: "Generic", Cardinality: schema.CardinalityMany, Optional: true, OrderWeight: 4000},
		{Name: "tags", Peer: "BuiltinTag", Kind: "Generic", Cardinality: schema.CardinalityMany, Identifier: "builtintag__infraautonomoussystem", Optional: true, OrderWeight: 5000},
		{Name: "organization", Peer: "InfraOrganization", Kind: "Generic", Cardinality: schema.CardinalityOne, OrderWeight: 6000},
	}
	if diff := cmp.Diff(want, as.Relationships); diff != "" {
		t.Fatalf("relationships mismatch (-want +got):\n%s", diff)
	}
}

func TestImportRejectsEmptyDocument(t *testing.T) {
	if _, err := Import(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	raw := []byte("openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n")
	if _, err := Import(context.Background(), raw); err == nil {
		t.Fatalf("expected error for document without components")
	}
}

func TestIsDocument(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want bool
	}{
		"yaml openapi": {raw: "openapi: 3.0.3\ninfo: {title: x}\n", want: true},
		"json openapi": {raw: `{"openapi":"3.1.0"}`, want: true},
		"bundle":       {raw: "main: abc\nnodes: []\n", want: false},
		"garbage":      {raw: "{{", want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := IsDocument([]byte(tc.raw)); got != tc.want {
				t.Fatalf("IsDocument = %v, want %v", got, tc.want)
			}
		})
	}
}
