package nodeform

import (
	"context"

	"github.com/goliatone/go-nodeform/internal/loader"
	"github.com/goliatone/go-nodeform/pkg/openapi"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	cfg := schema.NewLoaderOptions(options...)
	return loader.New(cfg)
}

// LoadBundle loads a schema bundle from src. Documents that declare an
// "openapi" version are imported through the OpenAPI adapter; anything else is
// decoded as a native schema bundle.
func LoadBundle(ctx context.Context, src schema.Source, options ...schema.LoaderOption) (schema.Bundle, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return schema.Bundle{}, err
	}
	if openapi.IsDocument(doc.Raw()) {
		return openapi.ImportDocument(ctx, doc)
	}
	return doc.Bundle()
}
