package model_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-nodeform/pkg/model"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

func interfaceSchema() schema.ObjectSchema {
	return schema.ObjectSchema{
		Kind: "InfraInterface",
		Attributes: []schema.Attribute{
			{Name: "name", Kind: schema.KindText, OrderWeight: 1000},
			{Name: "description", Kind: schema.KindTextArea, Optional: true, OrderWeight: 2000},
		},
	}
}

func TestNewCompilerAppliesDecorators(t *testing.T) {
	hide := model.DecoratorFunc(func(form *model.Form) error {
		fields := form.Fields[:0]
		for _, field := range form.Fields {
			if field.Name != "description" {
				fields = append(fields, field)
			}
		}
		form.Fields = fields
		return nil
	})
	failing := model.DecoratorFunc(func(*model.Form) error {
		return errors.New("tenant overrides unavailable")
	})

	form := model.NewCompiler(model.WithDecorators(hide, failing)).Compile(model.Input{Schema: interfaceSchema()})

	if len(form.Fields) != 1 || form.Fields[0].Name != "name" {
		t.Fatalf("expected decorator to drop description, got %+v", form.Fields)
	}
	if len(form.Warnings) != 1 || form.Warnings[0].Error() != "tenant overrides unavailable" {
		t.Fatalf("expected decorator error as warning, got %v", form.Warnings)
	}
}

func TestNewCompilerWithLabeler(t *testing.T) {
	form := model.NewCompiler(model.WithLabeler(func(name string) string { return "Label " + name })).
		Compile(model.Input{Schema: interfaceSchema()})

	field, ok := form.Field("description")
	if !ok {
		t.Fatalf("description missing")
	}
	if field.Label != "Label description" {
		t.Fatalf("label = %q", field.Label)
	}
	if field.Type != model.FieldTypeTextArea {
		t.Fatalf("type = %q, want textarea", field.Type)
	}
}
