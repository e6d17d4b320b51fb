package model

import "fmt"

// Options configures the behaviour of the Builder. Options are constructed by
// the public adapter in pkg/model and passed into New.
type Options struct {
	// Labeler derives a label from a field name when the schema has none.
	Labeler func(string) string

	// EnumLabel renders an enum value as an option label.
	EnumLabel func(any) string
}

func defaultOptions() Options {
	return Options{
		Labeler:   DefaultLabeler,
		EnumLabel: func(v any) string { return fmt.Sprint(v) },
	}
}
