package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const envResolver = "oc.env"

// resolver replaces ${...} expressions in place. Nodes are visited through
// their containers, so keys holding dots never need to round-trip through a
// dotted path. Each node is resolved once; nodes currently being resolved are
// tracked to report reference cycles.
type resolver struct {
	root   map[string]any
	active map[string]bool
	done   map[string]bool
}

// slot is one addressable entry of a map or list.
type slot struct {
	get func() any
	set func(any)
}

func resolveInterpolations(root map[string]any) error {
	r := &resolver{root: root, active: map[string]bool{}, done: map[string]bool{}}
	for _, k := range sortedKeys(root) {
		if _, err := r.resolveSlot([]string{k}, mapSlot(root, k)); err != nil {
			return err
		}
	}
	return nil
}

func mapSlot(m map[string]any, key string) slot {
	return slot{get: func() any { return m[key] }, set: func(v any) { m[key] = v }}
}

func listSlot(l []any, idx int) slot {
	return slot{get: func() any { return l[idx] }, set: func(v any) { l[idx] = v }}
}

// childSlot returns the entry named key inside node.
func childSlot(node any, key string) (slot, bool) {
	switch n := node.(type) {
	case map[string]any:
		if _, ok := n[key]; ok {
			return mapSlot(n, key), true
		}
	case []any:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(n) {
			return listSlot(n, idx), true
		}
	}
	return slot{}, false
}

// nodeID identifies a node by its key segments, joined with NUL so that a
// dotted key and a nested path stay distinct.
func nodeID(parts []string) string {
	return strings.Join(parts, "\x00")
}

func displayPath(parts []string) string {
	return strings.Join(parts, ".")
}

// resolveSlot resolves the node stored in s, found at parts, and everything
// below it.
func (r *resolver) resolveSlot(parts []string, s slot) (any, error) {
	id := nodeID(parts)
	value := s.get()
	if r.done[id] {
		return value, nil
	}
	if r.active[id] {
		return nil, fmt.Errorf("%w: reference cycle at %q", ErrInterpolation, displayPath(parts))
	}
	r.active[id] = true
	defer delete(r.active, id)

	switch v := value.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			if _, err := r.resolveSlot(childPath(parts, k), mapSlot(v, k)); err != nil {
				return nil, err
			}
		}
	case []any:
		for i := range v {
			if _, err := r.resolveSlot(childPath(parts, strconv.Itoa(i)), listSlot(v, i)); err != nil {
				return nil, err
			}
		}
	case string:
		resolved, err := r.interpolate(v, parts)
		if err != nil {
			return nil, err
		}
		s.set(resolved)
		value = resolved
	}

	r.done[id] = true
	return value, nil
}

func childPath(parts []string, key string) []string {
	out := make([]string, len(parts), len(parts)+1)
	copy(out, parts)
	return append(out, key)
}

// resolveTarget follows the segments of a reference from the root. Strings
// met on the way are resolved first, since they may expand to mappings.
func (r *resolver) resolveTarget(target []string, at []string) (any, error) {
	var node any = r.root
	for i, part := range target {
		s, ok := childSlot(node, part)
		if !ok {
			return nil, fmt.Errorf("%w: key %q not found (at %q)", ErrInterpolation, displayPath(target[:i+1]), displayPath(at))
		}
		if i == len(target)-1 {
			return r.resolveSlot(target, s)
		}
		node = s.get()
		if _, ok := node.(string); ok {
			resolved, err := r.resolveSlot(target[:i+1], s)
			if err != nil {
				return nil, err
			}
			node = resolved
		}
	}
	return nil, fmt.Errorf("%w: empty reference at %q", ErrInterpolation, displayPath(at))
}

// interpolate expands s. A string made of a single expression takes the
// referenced value and its type; otherwise results are rendered into s.
func (r *resolver) interpolate(s string, at []string) (any, error) {
	path := displayPath(at)
	if !strings.Contains(s, "${") {
		return s, nil
	}

	if strings.HasPrefix(s, "${") && strings.Index(s, "}") == len(s)-1 {
		value, err := r.evaluate(s[2:len(s)-1], at)
		if err != nil {
			return nil, err
		}
		return deepCopy(value), nil
	}

	var b strings.Builder
	rest := s
	for {
		idx := strings.Index(rest, "${")
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		if idx > 0 && rest[idx-1] == '\\' {
			b.WriteString(rest[:idx-1])
			b.WriteString("${")
			rest = rest[idx+2:]
			continue
		}
		b.WriteString(rest[:idx])

		end := strings.Index(rest[idx:], "}")
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated expression in %q at %q", ErrInterpolation, s, path)
		}
		value, err := r.evaluate(rest[idx+2:idx+end], at)
		if err != nil {
			return nil, err
		}
		text, err := render(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q at %q: %v", ErrInterpolation, s, path, err)
		}
		b.WriteString(text)
		rest = rest[idx+end+1:]
	}
	return b.String(), nil
}

// evaluate resolves the body of one ${...} expression found at the node at.
func (r *resolver) evaluate(expr string, at []string) (any, error) {
	expr = strings.TrimSpace(expr)
	if name, args, ok := strings.Cut(expr, ":"); ok {
		if name != envResolver {
			return nil, fmt.Errorf("%w: unknown resolver %q at %q", ErrInterpolation, name, displayPath(at))
		}
		return resolveEnv(args, displayPath(at))
	}

	target := splitPath(expr)
	if strings.HasPrefix(expr, ".") {
		target = relativeTarget(at, expr)
	}
	if len(target) == 0 {
		return nil, fmt.Errorf("%w: empty reference at %q", ErrInterpolation, displayPath(at))
	}
	return r.resolveTarget(target, at)
}

// relativeTarget resolves ${.key} against the node containing at; each
// extra leading dot moves one level up.
func relativeTarget(at []string, expr string) []string {
	dots := len(expr) - len(strings.TrimLeft(expr, "."))
	up := min(dots, len(at))
	base := at[:len(at)-up]
	return append(append([]string(nil), base...), splitPath(expr[dots:])...)
}

func resolveEnv(args, path string) (any, error) {
	name, def, hasDefault := strings.Cut(args, ",")
	name = strings.TrimSpace(name)
	if value, ok := os.LookupEnv(name); ok {
		return value, nil
	}
	if !hasDefault {
		return nil, fmt.Errorf("%w: environment variable %q is not set (at %q)", ErrInterpolation, name, path)
	}
	def = strings.TrimSpace(def)
	if def == "null" {
		return nil, nil
	}
	return strings.Trim(def, `'"`), nil
}

func render(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case map[string]any, []any:
		return "", fmt.Errorf("cannot embed a %T in a string", v)
	default:
		return fmt.Sprint(v), nil
	}
}
