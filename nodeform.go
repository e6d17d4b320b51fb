// Package nodeform turns object schemas into editable form structures and
// turns edited values back into mutation arguments. The subpackages carry the
// individual stages; this package wires them together for the common cases.
package nodeform

import (
	"github.com/goliatone/go-nodeform/pkg/fetch"
	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/model"
	"github.com/goliatone/go-nodeform/pkg/mutation"
	"github.com/goliatone/go-nodeform/pkg/options"
	"github.com/goliatone/go-nodeform/pkg/schema"
	"github.com/goliatone/go-nodeform/pkg/session"
)

// Form aliases model.Form so callers of the quick entry points do not need a
// second import.
type Form = model.Form

// MutationResult aliases mutation.Result.
type MutationResult = mutation.Result

// CompileOption configures CompileFormStructure.
type CompileOption func(*compileConfig)

type compileConfig struct {
	options  options.Result
	isOwner  func(*fieldvalue.OwnerRef) bool
	compiler []model.CompilerOption
}

// WithPeerOptions supplies resolved peer option lists for relationship fields.
func WithPeerOptions(result options.Result) CompileOption {
	return func(cfg *compileConfig) {
		cfg.options = result
	}
}

// WithOwnership reports whether the current user owns a protected value's
// source.
func WithOwnership(isOwner func(*fieldvalue.OwnerRef) bool) CompileOption {
	return func(cfg *compileConfig) {
		cfg.isOwner = isOwner
	}
}

// WithCompilerOptions forwards options to the underlying model compiler.
func WithCompilerOptions(opts ...model.CompilerOption) CompileOption {
	return func(cfg *compileConfig) {
		cfg.compiler = append(cfg.compiler, opts...)
	}
}

// CompileFormStructure builds the ordered field descriptors for s. A nil
// object yields a create form populated from schema defaults.
func CompileFormStructure(s schema.ObjectSchema, kindNames map[string]string, object fieldvalue.RawObject, opts ...CompileOption) Form {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return model.NewCompiler(cfg.compiler...).Compile(model.Input{
		Schema:    s,
		KindNames: kindNames,
		Object:    object,
		Options:   cfg.options,
		IsOwner:   cfg.isOwner,
	})
}

// ComputeMutationArguments diffs submitted values against original and returns
// the arguments a create or update mutation needs.
func ComputeMutationArguments(s schema.ObjectSchema, submitted map[string]any, mode mutation.Mode, original fieldvalue.RawObject) MutationResult {
	return mutation.Compute(s, submitted, mode, original)
}

// NewSession exposes the session constructor from the top-level module.
func NewSession(fetcher fetch.Fetcher, opts ...session.Option) *session.Session {
	return session.New(fetcher, opts...)
}
