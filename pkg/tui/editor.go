// Package tui edits a compiled form on the terminal. The Editor walks the
// fields in order, prompts for each editable one through a PromptDriver and
// returns the submitted values in the shape the mutation package expects.
package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/model"
	"github.com/goliatone/go-nodeform/pkg/options"
)

const noneLabel = "(none)"

// Option configures an Editor.
type Option func(*Editor)

// WithDriver swaps the prompt driver, mainly for tests.
func WithDriver(driver PromptDriver) Option {
	return func(e *Editor) {
		if driver != nil {
			e.driver = driver
		}
	}
}

// WithPageSize sets the number of options shown per page in select prompts.
func WithPageSize(n int) Option {
	return func(e *Editor) {
		e.pageSize = n
	}
}

// WithShowDisabled prints read-only fields with their current value.
func WithShowDisabled(show bool) Option {
	return func(e *Editor) {
		e.showDisabled = show
	}
}

// Editor prompts for the editable fields of a form.
type Editor struct {
	driver       PromptDriver
	pageSize     int
	showDisabled bool
}

// New constructs an Editor. Without WithDriver it prompts on the terminal.
func New(opts ...Option) *Editor {
	e := &Editor{showDisabled: true}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.driver == nil {
		e.driver = NewSurveyDriver()
	}
	return e
}

// Edit prompts for every enabled field and returns the submitted values keyed
// by field name. Attributes map to scalars (strings for text and number
// inputs, bools for checkboxes); single relationships map to a
// fieldvalue.Peer or nil; many relationships map to []fieldvalue.Peer.
func (e *Editor) Edit(ctx context.Context, form model.Form) (map[string]any, error) {
	submitted := make(map[string]any, len(form.Fields))
	for _, field := range form.Fields {
		if field.Disabled {
			if e.showDisabled {
				msg := fmt.Sprintf("%s: %s (read-only, %s)", field.Label, display(field), field.DisabledReason)
				if err := e.driver.Info(ctx, msg); err != nil {
					return nil, err
				}
			}
			continue
		}
		value, err := e.editField(ctx, field)
		if err != nil {
			return nil, fmt.Errorf("tui: field %s: %w", field.Name, err)
		}
		submitted[field.Name] = value
	}
	return submitted, nil
}

func (e *Editor) editField(ctx context.Context, field model.Field) (any, error) {
	switch field.Type {
	case model.FieldTypeCheckbox:
		current, _ := fieldvalue.ToBool(field.Value.Value)
		return e.driver.Confirm(ctx, ConfirmConfig{
			Message: field.Label,
			Default: current,
			Help:    field.Description,
		})
	case model.FieldTypeTextArea:
		return e.driver.TextArea(ctx, TextAreaConfig{
			Message: field.Label,
			Default: scalarString(field.Value.Value),
			Help:    field.Description,
		})
	case model.FieldTypePassword:
		answer, err := e.driver.Password(ctx, InputConfig{
			Message:   field.Label,
			Help:      field.Description,
			Validator: validator(field),
		})
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return field.Value.Value, nil
		}
		return answer, nil
	case model.FieldTypeSelect:
		if field.IsRelationship() {
			return e.selectPeer(ctx, field)
		}
		return e.selectEnum(ctx, field)
	case model.FieldTypeMultiSelect:
		return e.selectPeers(ctx, field)
	default:
		return e.driver.Input(ctx, InputConfig{
			Message:   field.Label,
			Default:   scalarString(field.Value.Value),
			Help:      field.Description,
			Validator: validator(field),
		})
	}
}

func (e *Editor) selectEnum(ctx context.Context, field model.Field) (any, error) {
	labels, offset := e.optionLabels(field)
	current := scalarString(field.Value.Value)
	idx, err := e.driver.Select(ctx, SelectConfig{
		Message:      field.Label,
		Options:      labels,
		DefaultIndex: indexOfValue(field.Options, current, offset),
		Help:         field.Description,
		PageSize:     e.pageSize,
	})
	if err != nil {
		return nil, err
	}
	opt, ok, err := pick(field.Options, idx, offset)
	if err != nil || !ok {
		return nil, err
	}
	return opt.Value, nil
}

func (e *Editor) selectPeer(ctx context.Context, field model.Field) (any, error) {
	labels, offset := e.optionLabels(field)
	current := ""
	if field.Value.Peer != nil {
		current = field.Value.Peer.ID
	}
	idx, err := e.driver.Select(ctx, SelectConfig{
		Message:      field.Label,
		Options:      labels,
		DefaultIndex: indexOfValue(field.Options, current, offset),
		Help:         field.Description,
		PageSize:     e.pageSize,
	})
	if err != nil {
		return nil, err
	}
	opt, ok, err := pick(field.Options, idx, offset)
	if err != nil || !ok {
		return nil, err
	}
	return fieldvalue.Peer{ID: opt.Value, DisplayLabel: opt.Label}, nil
}

func (e *Editor) selectPeers(ctx context.Context, field model.Field) (any, error) {
	labels := make([]string, 0, len(field.Options))
	for _, opt := range field.Options {
		labels = append(labels, opt.Label)
	}
	var defaults []int
	for _, id := range field.Value.PeerIDs() {
		if idx := indexOfValue(field.Options, id, 0); idx >= 0 {
			defaults = append(defaults, idx)
		}
	}

	picked, err := e.driver.MultiSelect(ctx, SelectConfig{
		Message:  field.Label,
		Options:  labels,
		Defaults: defaults,
		Help:     field.Description,
		PageSize: e.pageSize,
	})
	if err != nil {
		return nil, err
	}
	peers := make([]fieldvalue.Peer, 0, len(picked))
	for _, idx := range picked {
		opt, ok, err := pick(field.Options, idx, 0)
		if err != nil {
			return nil, err
		}
		if ok {
			peers = append(peers, fieldvalue.Peer{ID: opt.Value, DisplayLabel: opt.Label})
		}
	}
	return peers, nil
}

// optionLabels lists the option labels, prefixed with a "(none)" entry for
// fields that may be left empty. The returned offset is 1 in that case.
func (e *Editor) optionLabels(field model.Field) ([]string, int) {
	labels := make([]string, 0, len(field.Options)+1)
	offset := 0
	if !field.Rules.Required {
		labels = append(labels, noneLabel)
		offset = 1
	}
	for _, opt := range field.Options {
		labels = append(labels, opt.Label)
	}
	return labels, offset
}

// pick maps a prompt index back to an option. ok is false for the "(none)"
// entry.
func pick(opts []options.Option, idx, offset int) (options.Option, bool, error) {
	if offset == 1 && idx == 0 {
		return options.Option{}, false, nil
	}
	i := idx - offset
	if i < 0 || i >= len(opts) {
		return options.Option{}, false, ErrUnknownOption
	}
	return opts[i], true, nil
}

func indexOfValue(opts []options.Option, value string, offset int) int {
	if value == "" {
		if offset == 1 {
			return 0
		}
		return -1
	}
	for i, opt := range opts {
		if opt.Value == value {
			return i + offset
		}
	}
	return -1
}

// validator builds the input check for a field from its rules.
func validator(field model.Field) func(string) error {
	return func(answer string) error {
		if strings.TrimSpace(answer) == "" {
			if field.Rules.Required {
				return errors.New("value is required")
			}
			return nil
		}
		if field.Type == model.FieldTypeNumber {
			if _, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); err != nil {
				return errors.New("value must be a number")
			}
		}
		for _, rule := range field.Rules.Validations {
			if err := checkRule(rule, answer); err != nil {
				return err
			}
		}
		return nil
	}
}

func checkRule(rule model.ValidationRule, answer string) error {
	switch rule.Kind {
	case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
		limit, err := strconv.Atoi(rule.Params["value"])
		if err != nil {
			return nil
		}
		n := utf8.RuneCountInString(answer)
		if rule.Kind == model.ValidationRuleMinLength && n < limit {
			return fmt.Errorf("value must be at least %d characters", limit)
		}
		if rule.Kind == model.ValidationRuleMaxLength && n > limit {
			return fmt.Errorf("value must be at most %d characters", limit)
		}
	case model.ValidationRulePattern:
		re, err := regexp.Compile(rule.Params["pattern"])
		if err != nil {
			return fmt.Errorf("field pattern %q is invalid: %w", rule.Params["pattern"], err)
		}
		if !re.MatchString(answer) {
			return fmt.Errorf("value must match %s", rule.Params["pattern"])
		}
	}
	return nil
}

func display(field model.Field) string {
	switch {
	case field.Value.Peer != nil:
		return peerLabel(*field.Value.Peer)
	case len(field.Value.Peers) > 0:
		labels := make([]string, 0, len(field.Value.Peers))
		for _, peer := range field.Value.Peers {
			labels = append(labels, peerLabel(peer))
		}
		return strings.Join(labels, ", ")
	case field.Type == model.FieldTypePassword:
		return "********"
	}
	if s := scalarString(field.Value.Value); s != "" {
		return s
	}
	return "-"
}

func peerLabel(peer fieldvalue.Peer) string {
	if peer.DisplayLabel != "" {
		return peer.DisplayLabel
	}
	return peer.ID
}

func scalarString(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
