package mutation

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/golang/glog"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

// Compute diffs submitted against original and returns the mutation
// arguments. submitted is keyed by attribute or relationship name; values may
// be bare scalars, attribute cells, FieldValues, or any relationship shape
// fieldvalue.NormalizeRelationship accepts. Fields missing from submitted are
// left unchanged. original is ignored in create mode.
func Compute(s schema.ObjectSchema, submitted map[string]any, mode Mode, original fieldvalue.RawObject) Result {
	if mode == ModeCreate {
		original = nil
	}

	var res Result
	for _, ref := range s.Fields() {
		sub, present := submitted[ref.Name]
		if ref.Attribute != nil {
			computeAttribute(&res, *ref.Attribute, sub, present, mode, original)
			continue
		}
		computeRelationship(&res, *ref.Relationship, sub, present, mode, original)
	}
	return res
}

func computeAttribute(res *Result, attr schema.Attribute, sub any, present bool, mode Mode, original fieldvalue.RawObject) {
	before := fieldvalue.Normalize(original[attr.Name])
	effective := before.Value

	var (
		after     fieldvalue.FieldValue
		coerced   any
		coerceErr string
	)
	if present {
		after = fieldvalue.Normalize(sub)
		coerced, coerceErr = coerce(attr.Kind, after.Value)
		effective = coerced
	}

	if attr.Mandatory() && fieldvalue.IsEmptyValue(effective) {
		res.Errors = append(res.Errors, &InvalidFieldValueError{Field: attr.Name, Reason: ReasonRequired})
		return
	}
	if !present {
		return
	}
	if coerceErr != "" {
		res.Errors = append(res.Errors, &InvalidFieldValueError{Field: attr.Name, Reason: coerceErr})
		return
	}

	switch mode {
	case ModeCreate:
		if fieldvalue.IsEmptyValue(coerced) || after.IsDefault {
			return
		}
		if attr.DefaultValue != nil && fieldvalue.ScalarEqual(coerced, attr.DefaultValue) {
			return
		}
	default:
		if fieldvalue.ScalarEqual(coerced, before.Value) {
			return
		}
	}

	if reason := validate(attr, coerced); reason != "" {
		res.Errors = append(res.Errors, &InvalidFieldValueError{Field: attr.Name, Reason: reason})
		return
	}
	res.Args = append(res.Args, Argument{Name: attr.Name + valueSuffix, Value: coerced})
}

func computeRelationship(res *Result, rel schema.Relationship, sub any, present bool, mode Mode, original fieldvalue.RawObject) {
	cardinality := rel.Cardinality.Normalize()

	before := fieldvalue.NormalizeRelationship(original[rel.Name], cardinality).PeerIDs()
	effective := before
	var after []string
	if present {
		after = fieldvalue.NormalizeRelationship(sub, cardinality).PeerIDs()
		effective = after
	}

	if !rel.Optional && len(effective) == 0 {
		res.Errors = append(res.Errors, &InvalidFieldValueError{Field: rel.Name, Reason: ReasonRequired})
		return
	}
	if !present {
		return
	}

	if mode == ModeCreate {
		if len(after) == 0 {
			return
		}
	} else if fieldvalue.SamePeerSet(after, before) {
		return
	}

	if cardinality == schema.CardinalityOne {
		ref := PeerRef{}
		if len(after) > 0 {
			ref.ID = after[0]
		}
		res.Args = append(res.Args, Argument{Name: rel.Name, Value: ref})
		return
	}

	refs := make([]PeerRef, 0, len(after))
	for _, id := range after {
		refs = append(refs, PeerRef{ID: id})
	}
	res.Args = append(res.Args, Argument{Name: rel.Name, Value: refs})
}

// coerce converts form strings into the JSON type the attribute kind expects.
// Blank strings become nil for non-text kinds.
func coerce(kind schema.AttributeKind, value any) (any, string) {
	switch kind {
	case schema.KindNumber:
		text, ok := value.(string)
		if !ok {
			return value, ""
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, ""
		}
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, ""
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return value, ReasonNotNumber
		}
		return f, ""
	case schema.KindBoolean, schema.KindCheckbox:
		text, ok := value.(string)
		if !ok {
			return value, ""
		}
		if strings.TrimSpace(text) == "" {
			return nil, ""
		}
		b, ok := fieldvalue.ToBool(text)
		if !ok {
			return value, ReasonNotBool
		}
		return b, ""
	}
	return value, ""
}

func validate(attr schema.Attribute, value any) string {
	text, ok := value.(string)
	if !ok || text == "" {
		return ""
	}
	length := utf8.RuneCountInString(text)
	if attr.MinLength != nil && length < *attr.MinLength {
		return ReasonMinLength
	}
	if attr.MaxLength != nil && length > *attr.MaxLength {
		return ReasonMaxLength
	}
	if attr.Regex != "" {
		re, err := compilePattern(attr.Regex)
		if err != nil {
			glog.Warningf("mutation: attribute %q has invalid regex %q: %v", attr.Name, attr.Regex, err)
			return ReasonInvalidPattern
		}
		if !re.MatchString(text) {
			return ReasonPattern
		}
	}
	return ""
}
