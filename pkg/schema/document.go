package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names the encoding of a schema document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document wraps a raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format guesses the encoding from the location extension, then from the
// first significant byte.
func (d Document) Format() Format {
	switch strings.ToLower(path.Ext(d.Location())) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return DetectFormat(d.raw)
}

// Bundle decodes the document into a normalized schema bundle.
func (d Document) Bundle() (Bundle, error) {
	bundle, err := ParseBundle(d.raw, d.Format())
	if err != nil {
		return Bundle{}, fmt.Errorf("schema: decode %s: %w", d.Location(), err)
	}
	return bundle, nil
}

// DetectFormat reports JSON when the payload opens with an object or array,
// YAML otherwise.
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

type bundleWire struct {
	Main     string         `json:"main" yaml:"main"`
	Hash     string         `json:"hash" yaml:"hash"`
	Nodes    []ObjectSchema `json:"nodes" yaml:"nodes"`
	Generics []ObjectSchema `json:"generics" yaml:"generics"`
}

// ParseBundle decodes a schema payload. The revision hash is read from "hash"
// or, as the schema summary endpoint names it, "main"; when both are absent it
// is computed locally.
func ParseBundle(raw []byte, format Format) (Bundle, error) {
	var wire bundleWire
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &wire); err != nil {
			return Bundle{}, err
		}
	default:
		if err := json.Unmarshal(raw, &wire); err != nil {
			return Bundle{}, err
		}
	}

	bundle := Bundle{
		Hash:     wire.Hash,
		Nodes:    normalizeNodes(wire.Nodes),
		Generics: normalizeNodes(wire.Generics),
	}
	if bundle.Hash == "" {
		bundle.Hash = wire.Main
	}
	if bundle.Hash == "" {
		bundle.Hash = bundle.ComputeHash()
	}
	return bundle, nil
}

// normalizeNodes derives missing kinds, sorts attributes and relationships by
// weight, and orders nodes by name case-insensitively.
func normalizeNodes(nodes []ObjectSchema) []ObjectSchema {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]ObjectSchema, 0, len(nodes))
	for _, node := range nodes {
		if node.Kind == "" {
			node.Kind = deriveKind(node.Namespace, node.Name)
		}
		out = append(out, node.SortedByWeight())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func deriveKind(namespace, name string) string {
	if namespace == "" || namespace == "Attribute" {
		return name
	}
	return namespace + name
}
