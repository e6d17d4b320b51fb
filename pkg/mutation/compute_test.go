package mutation

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

func autonomousSystem() schema.ObjectSchema {
	maxLen := 16
	return schema.ObjectSchema{
		Kind: "InfraAutonomousSystem",
		Attributes: []schema.Attribute{
			{Name: "name", Kind: schema.KindText, Unique: true, OrderWeight: 1000, MaxLength: &maxLen},
			{Name: "asn", Kind: schema.KindNumber, Unique: true, OrderWeight: 2000},
			{Name: "description", Kind: schema.KindText, Optional: true, OrderWeight: 3000},
		},
		Relationships: []schema.Relationship{
			{Name: "organization", Peer: "CoreOrganization", Cardinality: schema.CardinalityOne, Optional: true, OrderWeight: 2500},
			{Name: "member_of_groups", Peer: "CoreGroup", Cardinality: schema.CardinalityMany, Optional: true, OrderWeight: 4000},
		},
	}
}

func original() fieldvalue.RawObject {
	return fieldvalue.RawObject{
		"id":          "as-1",
		"name":        map[string]any{"value": "edge", "is_protected": false},
		"asn":         map[string]any{"value": float64(1)},
		"description": map[string]any{"value": nil, "is_default": true},
		"organization": map[string]any{
			"node": map[string]any{"id": "org-1", "display_label": "Acme"},
		},
		"member_of_groups": map[string]any{
			"edges": []any{
				map[string]any{"node": map[string]any{"id": "1"}},
				map[string]any{"node": map[string]any{"id": "2"}},
			},
		},
	}
}

func TestComputeUpdateEmitsOnlyChangedAttribute(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{"name": "edge", "asn": 2}, ModeUpdate, original())

	want := []Argument{{Name: "asn__value", Value: 2}}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if res.Blocked() {
		t.Fatalf("unexpected errors: %v", res.Err())
	}
}

func TestComputeUpdateUnchangedIsEmpty(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{
		"name":             "edge",
		"asn":              "1",
		"description":      "",
		"organization":     map[string]any{"id": "org-1"},
		"member_of_groups": []any{"2", "1"},
	}, ModeUpdate, original())

	if !res.Empty() {
		t.Fatalf("expected no arguments, got %+v", res.Args)
	}
}

func TestComputeManyRelationshipEmitsReplacementList(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{
		"member_of_groups": []fieldvalue.Peer{{ID: "2"}, {ID: "3"}},
	}, ModeUpdate, original())

	want := []Argument{{Name: "member_of_groups", Value: []PeerRef{{ID: "2"}, {ID: "3"}}}}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(res.Payload())
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if got, want := string(raw), `{"member_of_groups":[{"id":"2"},{"id":"3"}]}`; got != want {
		t.Fatalf("payload = %s, want %s", got, want)
	}
}

func TestComputeManyRelationshipCleared(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{"member_of_groups": []any{}}, ModeUpdate, original())

	arg, ok := res.Arg("member_of_groups")
	if !ok {
		t.Fatalf("expected member_of_groups argument")
	}
	raw, _ := json.Marshal(arg.Value)
	if string(raw) != "[]" {
		t.Fatalf("cleared list encoded as %s", raw)
	}
}

func TestComputeClearingSingleRelationship(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{"organization": nil}, ModeUpdate, original())

	arg, ok := res.Arg("organization")
	if !ok {
		t.Fatalf("expected organization argument, got %+v", res.Args)
	}
	raw, err := json.Marshal(arg.Value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"id":null}` {
		t.Fatalf("cleared relationship encoded as %s", raw)
	}
}

func TestComputeSingleRelationshipChanged(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{
		"organization": fieldvalue.Peer{ID: "org-2", DisplayLabel: "Globex"},
	}, ModeUpdate, original())

	want := []Argument{{Name: "organization", Value: PeerRef{ID: "org-2"}}}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeRequiredUnchangedEmptyBlocks(t *testing.T) {
	obj := original()
	obj["name"] = map[string]any{"value": ""}

	res := Compute(autonomousSystem(), map[string]any{"asn": 7}, ModeUpdate, obj)

	if !res.Blocked() {
		t.Fatalf("expected submission to be blocked")
	}
	if err := res.FieldError("name"); err == nil || err.Reason != ReasonRequired {
		t.Fatalf("expected required error on name, got %+v", res.Errors)
	}
}

func TestComputeRequiredRelationship(t *testing.T) {
	s := autonomousSystem()
	s.Relationships[0].Optional = false

	res := Compute(s, map[string]any{"organization": ""}, ModeUpdate, original())
	if err := res.FieldError("organization"); err == nil || err.Reason != ReasonRequired {
		t.Fatalf("expected required error on organization, got %+v", res.Errors)
	}
	if _, ok := res.Arg("organization"); ok {
		t.Fatalf("invalid field must not be emitted")
	}
}

func TestComputeCreateMode(t *testing.T) {
	s := autonomousSystem()
	s.Attributes = append(s.Attributes, schema.Attribute{
		Name: "status", Kind: schema.KindText, DefaultValue: "active", OrderWeight: 3500,
	})

	res := Compute(s, map[string]any{
		"name":             "edge",
		"asn":              "65000",
		"description":      "",
		"status":           "active",
		"organization":     "org-1",
		"member_of_groups": []any{},
	}, ModeCreate, original())

	want := []Argument{
		{Name: "name__value", Value: "edge"},
		{Name: "asn__value", Value: int64(65000)},
		{Name: "organization", Value: PeerRef{ID: "org-1"}},
	}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeCreateMissingRequired(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{"name": "edge"}, ModeCreate, nil)
	if err := res.FieldError("asn"); err == nil || err.Reason != ReasonRequired {
		t.Fatalf("expected required error on asn, got %+v", res.Errors)
	}
}

func TestComputeOrdersArgumentsBySchemaWeight(t *testing.T) {
	res := Compute(autonomousSystem(), map[string]any{
		"member_of_groups": []any{"9"},
		"description":      "core",
		"organization":     "org-3",
		"asn":              5,
		"name":             "renamed",
	}, ModeUpdate, original())

	var names []string
	for _, arg := range res.Args {
		names = append(names, arg.Name)
	}
	want := []string{"name__value", "asn__value", "organization", "description__value", "member_of_groups"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeValidatesEmittedValues(t *testing.T) {
	s := autonomousSystem()
	s.Attributes[2].Regex = `^[a-z ]+$`

	res := Compute(s, map[string]any{
		"name":        "a-very-long-autonomous-system-name",
		"asn":         "sixty",
		"description": "Core 1",
	}, ModeUpdate, original())

	cases := map[string]string{
		"name":        ReasonMaxLength,
		"asn":         ReasonNotNumber,
		"description": ReasonPattern,
	}
	for field, reason := range cases {
		err := res.FieldError(field)
		if err == nil || err.Reason != reason {
			t.Fatalf("field %s: expected %q, got %+v", field, reason, err)
		}
	}
	if !res.Empty() {
		t.Fatalf("invalid values must not be emitted, got %+v", res.Args)
	}
}

func TestComputeAcceptsFieldValues(t *testing.T) {
	before := fieldvalue.Normalize(original()["asn"])
	updated := fieldvalue.Update(3, before)

	res := Compute(autonomousSystem(), map[string]any{"asn": updated}, ModeUpdate, original())
	want := []Argument{{Name: "asn__value", Value: 3}}
	if diff := cmp.Diff(want, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestPayloadNestsAttributeValues(t *testing.T) {
	res := Result{Args: []Argument{
		{Name: "asn__value", Value: 2},
		{Name: "organization", Value: PeerRef{}},
	}}

	raw, err := json.Marshal(res.Payload())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(raw), `{"asn":{"value":2},"organization":{"id":null}}`; got != want {
		t.Fatalf("payload = %s, want %s", got, want)
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(" Update "); err != nil || mode != ModeUpdate {
		t.Fatalf("ParseMode = %q, %v", mode, err)
	}
	if _, err := ParseMode("upsert"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestComputeManyRelationshipToleratesCardinalitySpelling(t *testing.T) {
	for _, cardinality := range []schema.Cardinality{"Many", " many ", "MANY"} {
		s := autonomousSystem()
		s.Relationships[1].Cardinality = cardinality

		for _, submitted := range [][]string{{"1", "3"}, {"1", "2", "3"}} {
			res := Compute(s, map[string]any{"member_of_groups": submitted}, ModeUpdate, original())

			var want []PeerRef
			for _, id := range submitted {
				want = append(want, PeerRef{ID: id})
			}
			if diff := cmp.Diff([]Argument{{Name: "member_of_groups", Value: want}}, res.Args); diff != "" {
				t.Fatalf("cardinality %q, submitted %v: args mismatch (-want +got):\n%s", cardinality, submitted, diff)
			}
		}

		res := Compute(s, map[string]any{"member_of_groups": []string{"2", "1"}}, ModeUpdate, original())
		if !res.Empty() {
			t.Fatalf("cardinality %q: reordered selection must be empty, got %+v", cardinality, res.Args)
		}
	}
}

func TestComputeInvalidSchemaPatternBlocks(t *testing.T) {
	s := autonomousSystem()
	s.Attributes[2].Regex = `^[a-z+$`

	for i := 0; i < 2; i++ {
		res := Compute(s, map[string]any{"description": "core"}, ModeUpdate, original())
		err := res.FieldError("description")
		if err == nil || err.Reason != ReasonInvalidPattern {
			t.Fatalf("run %d: expected %q, got %+v", i, ReasonInvalidPattern, err)
		}
		if !res.Empty() {
			t.Fatalf("run %d: unchecked value must not be emitted, got %+v", i, res.Args)
		}
	}
}

func TestCompilePatternCachesResult(t *testing.T) {
	first, err := compilePattern(`^as-[0-9]+$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := compilePattern(`^as-[0-9]+$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached regexp to be reused")
	}
	if _, err := compilePattern(`(`); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := compilePattern(`(`); err == nil {
		t.Fatalf("expected cached compile error")
	}
}
