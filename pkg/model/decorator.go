package model

// Decorator adjusts a compiled form after the schema-derived structure has
// been built, for instance to hide fields or relabel them for a tenant.
type Decorator interface {
	Decorate(*Form) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Form) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *Form) error {
	return fn(form)
}
