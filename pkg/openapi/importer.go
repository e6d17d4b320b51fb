package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-nodeform/pkg/schema"
)

const (
	componentPrefix = "#/components/schemas/"
	weightStep      = 1000

	kindExtensionKey         = "x-nodeform-kind"
	orderWeightExtensionKey  = "x-order-weight"
	uniqueExtensionKey       = "x-unique"
	displayLabelExtensionKey = "x-display-labels"
)

// Options configures an import.
type Options struct {
	// Namespace prefixes every derived kind.
	Namespace string

	// Validate runs the kin-openapi document validation before importing.
	Validate bool

	// AllowExternalRefs lets the loader follow references outside the document.
	AllowExternalRefs bool
}

// Option mutates Options.
type Option func(*Options)

// WithNamespace sets the namespace of imported nodes.
func WithNamespace(namespace string) Option {
	return func(o *Options) {
		o.Namespace = namespace
	}
}

// WithValidation toggles document validation.
func WithValidation(enabled bool) Option {
	return func(o *Options) {
		o.Validate = enabled
	}
}

// WithExternalRefs allows references to other documents.
func WithExternalRefs(enabled bool) Option {
	return func(o *Options) {
		o.AllowExternalRefs = enabled
	}
}

// IsDocument reports whether raw (JSON or YAML) declares an "openapi" version
// at its root.
func IsDocument(raw []byte) bool {
	var probe struct {
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return strings.TrimSpace(probe.OpenAPI) != ""
}

// ImportDocument imports the nodes described by a loaded document.
func ImportDocument(ctx context.Context, doc schema.Document, opts ...Option) (schema.Bundle, error) {
	return Import(ctx, doc.Raw(), opts...)
}

// Import parses raw (JSON or YAML) and converts components.schemas into a
// schema bundle.
func Import(ctx context.Context, raw []byte, opts ...Option) (schema.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return schema.Bundle{}, err
	}
	if len(raw) == 0 {
		return schema.Bundle{}, errors.New("openapi import: document payload is empty")
	}
	cfg := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.AllowExternalRefs,
	}
	api, err := loader.LoadFromData(raw)
	if err != nil {
		return schema.Bundle{}, fmt.Errorf("openapi import: load document: %w", err)
	}
	if cfg.Validate {
		if err := api.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return schema.Bundle{}, fmt.Errorf("openapi import: validate: %w", err)
		}
	}
	if api.Components == nil || len(api.Components.Schemas) == 0 {
		return schema.Bundle{}, errors.New("openapi import: document has no component schemas")
	}

	names := make([]string, 0, len(api.Components.Schemas))
	for name, ref := range api.Components.Schemas {
		if ref != nil && ref.Value != nil && isObject(ref.Value) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	bundle := schema.Bundle{}
	for _, name := range names {
		node, err := convertComponent(cfg.Namespace, name, api.Components.Schemas[name].Value)
		if err != nil {
			return schema.Bundle{}, err
		}
		bundle.Nodes = append(bundle.Nodes, node)
	}
	bundle.Hash = bundle.ComputeHash()
	return bundle, nil
}

func convertComponent(namespace, name string, src *openapi3.Schema) (schema.ObjectSchema, error) {
	node := schema.ObjectSchema{
		Kind:          kindFor(namespace, name),
		Namespace:     namespace,
		Name:          name,
		Label:         src.Title,
		Description:   src.Description,
		DisplayLabels: stringList(src.Extensions[displayLabelExtensionKey]),
	}

	required := make(map[string]bool, len(src.Required))
	for _, field := range src.Required {
		required[field] = true
	}

	props := make([]string, 0, len(src.Properties))
	for prop := range src.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	for i, prop := range props {
		ref := src.Properties[prop]
		if ref == nil || ref.Value == nil || ref.Value.ReadOnly {
			continue
		}
		weight := (i + 1) * weightStep
		if w, ok := intValue(ref.Value.Extensions[orderWeightExtensionKey]); ok {
			weight = w
		}

		if rel, ok := relationshipFor(namespace, prop, ref); ok {
			rel.Optional = !required[prop]
			rel.OrderWeight = weight
			rel.Description = ref.Value.Description
			rel.Label = ref.Value.Title
			node.Relationships = append(node.Relationships, rel)
			continue
		}

		attr, err := attributeFor(prop, ref.Value)
		if err != nil {
			return schema.ObjectSchema{}, fmt.Errorf("openapi import: %s.%s: %w", name, prop, err)
		}
		attr.Optional = !required[prop]
		attr.OrderWeight = weight
		node.Attributes = append(node.Attributes, attr)
	}
	return node.SortedByWeight(), nil
}

func attributeFor(name string, src *openapi3.Schema) (schema.Attribute, error) {
	attr := schema.Attribute{
		Name:         name,
		Kind:         attributeKind(src),
		Label:        src.Title,
		Description:  src.Description,
		DefaultValue: src.Default,
		Regex:        src.Pattern,
	}
	if override, ok := src.Extensions[kindExtensionKey].(string); ok && override != "" {
		attr.Kind = schema.AttributeKind(override)
	}
	if unique, ok := src.Extensions[uniqueExtensionKey].(bool); ok {
		attr.Unique = unique
	}
	if len(src.Enum) > 0 {
		attr.Enum = append([]any(nil), src.Enum...)
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		attr.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		attr.MaxLength = &value
	}
	if attr.MinLength != nil && attr.MaxLength != nil && *attr.MinLength > *attr.MaxLength {
		return schema.Attribute{}, fmt.Errorf("minLength %d exceeds maxLength %d", *attr.MinLength, *attr.MaxLength)
	}
	return attr, nil
}

func attributeKind(src *openapi3.Schema) schema.AttributeKind {
	switch firstSchemaType(src.Type) {
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return schema.KindNumber
	case openapi3.TypeBoolean:
		return schema.KindBoolean
	case openapi3.TypeObject:
		return schema.KindJSON
	case openapi3.TypeArray:
		return schema.KindList
	case openapi3.TypeString:
		switch src.Format {
		case "date-time", "date":
			return schema.KindDateTime
		case "email":
			return schema.KindEmail
		case "uri", "url":
			return schema.KindURL
		case "password":
			return schema.KindPassword
		case "ipv4", "ipv6":
			return schema.KindIPHost
		}
		return schema.KindText
	}
	return schema.KindAny
}

func isObject(src *openapi3.Schema) bool {
	return firstSchemaType(src.Type) == openapi3.TypeObject || len(src.Properties) > 0
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func kindFor(namespace, name string) string {
	return namespace + name
}

func componentName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, componentPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, componentPrefix)
	return name, name != ""
}

func stringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
