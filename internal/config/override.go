package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type overrideKind int

const (
	overrideSet    overrideKind = iota // key=value
	overrideAdd                        // +key=value
	overrideForce                      // ++key=value
	overrideDelete                     // ~key[=value]
)

var overrideKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+([./][A-Za-z0-9_\-]+)*$`)

type override struct {
	kind     overrideKind
	key      string
	raw      string
	value    any
	hasValue bool
}

func parseOverrides(raw []string) ([]override, error) {
	out := make([]override, 0, len(raw))
	for _, s := range raw {
		o, err := parseOverride(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func parseOverride(s string) (override, error) {
	var o override
	rest := s
	switch {
	case strings.HasPrefix(rest, "++"):
		o.kind, rest = overrideForce, rest[2:]
	case strings.HasPrefix(rest, "+"):
		o.kind, rest = overrideAdd, rest[1:]
	case strings.HasPrefix(rest, "~"):
		o.kind, rest = overrideDelete, rest[1:]
	}

	key, value, found := strings.Cut(rest, "=")
	o.key = strings.TrimSpace(key)
	if !overrideKeyPattern.MatchString(o.key) {
		return override{}, fmt.Errorf("%w: %q: bad key", ErrInvalidOverride, s)
	}
	if !found {
		if o.kind != overrideDelete {
			return override{}, fmt.Errorf("%w: %q: expected key=value", ErrInvalidOverride, s)
		}
		return o, nil
	}

	o.raw = strings.TrimSpace(value)
	o.hasValue = true
	if o.raw == "" {
		o.value = ""
		return o, nil
	}
	if err := yaml.Unmarshal([]byte(o.raw), &o.value); err != nil {
		return override{}, fmt.Errorf("%w: %q: %v", ErrInvalidOverride, s, err)
	}
	o.value = normalize(o.value)
	return o, nil
}

// applyValueOverrides applies every override that did not select a group.
func (c *composer) applyValueOverrides(tree map[string]any) error {
	for i, o := range c.overrides {
		if c.consumed[i] {
			continue
		}
		if err := applyOverride(tree, o); err != nil {
			return err
		}
	}
	return nil
}

func applyOverride(tree map[string]any, o override) error {
	key := strings.ReplaceAll(o.key, "/", ".")
	parent, last, err := parentMap(tree, key, o.kind == overrideAdd || o.kind == overrideForce)
	if err != nil {
		return fmt.Errorf("override %s: %w", o.key, err)
	}
	current, exists := parent[last]

	switch o.kind {
	case overrideSet:
		if !exists {
			return fmt.Errorf("override %s: %w (use +%s=... to add it)", o.key, ErrKeyNotFound, o.key)
		}
		parent[last] = o.value
	case overrideAdd:
		if exists {
			return fmt.Errorf("override %s: %w (use ++%s=... to force)", o.key, ErrKeyExists, o.key)
		}
		parent[last] = o.value
	case overrideForce:
		parent[last] = o.value
	case overrideDelete:
		if !exists {
			return fmt.Errorf("override %s: %w", o.key, ErrKeyNotFound)
		}
		if o.hasValue && !reflect.DeepEqual(current, o.value) {
			return fmt.Errorf("override %s: %w: current value %v does not match %v", o.key, ErrInvalidOverride, current, o.value)
		}
		delete(parent, last)
	}
	return nil
}
