package model

import "github.com/goliatone/go-nodeform/internal/model"

// Compiler converts object schemas into form structures.
type Compiler interface {
	Compile(in Input) Form
}

// CompilerOption configures the compiler behaviour.
type CompilerOption func(*compilerOptions)

type compilerOptions struct {
	labeler    func(string) string
	enumLabel  func(any) string
	decorators []Decorator
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) CompilerOption {
	return func(opts *compilerOptions) {
		opts.labeler = labeler
	}
}

// WithEnumLabel overrides how enum values are rendered as option labels.
func WithEnumLabel(fn func(any) string) CompilerOption {
	return func(opts *compilerOptions) {
		opts.enumLabel = fn
	}
}

// WithDecorators registers decorators applied, in order, to every compiled
// form. A decorator error is appended to the form warnings.
func WithDecorators(decorators ...Decorator) CompilerOption {
	return func(opts *compilerOptions) {
		opts.decorators = append(opts.decorators, decorators...)
	}
}

// NewCompiler returns a Compiler backed by the internal implementation.
func NewCompiler(options ...CompilerOption) Compiler {
	cfg := compilerOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	builder := model.New(model.Options{
		Labeler:   cfg.labeler,
		EnumLabel: cfg.enumLabel,
	})
	if len(cfg.decorators) == 0 {
		return builder
	}
	return &decoratedCompiler{builder: builder, decorators: cfg.decorators}
}

type decoratedCompiler struct {
	builder    *model.Builder
	decorators []Decorator
}

func (c *decoratedCompiler) Compile(in Input) Form {
	form := c.builder.Compile(in)
	for _, decorator := range c.decorators {
		if err := decorator.Decorate(&form); err != nil {
			form.Warnings = append(form.Warnings, err)
		}
	}
	return form
}
