package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookup walks a dotted path through nested maps and lists.
func lookup(node any, path string) (any, bool) {
	for _, part := range splitPath(path) {
		switch n := node.(type) {
		case map[string]any:
			next, ok := n[part]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(n) {
				return nil, false
			}
			node = n[idx]
		default:
			return nil, false
		}
	}
	return node, true
}

// parentMap returns the map holding the last path segment, creating
// intermediate maps when create is set.
func parentMap(root map[string]any, path string, create bool) (map[string]any, string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("%w: empty key", ErrInvalidOverride)
	}

	node := root
	for i, part := range parts[:len(parts)-1] {
		next, ok := node[part]
		if !ok {
			if !create {
				return nil, "", fmt.Errorf("%w: %s", ErrKeyNotFound, strings.Join(parts[:i+1], "."))
			}
			child := map[string]any{}
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s is not a mapping", ErrTypeMismatch, strings.Join(parts[:i+1], "."))
		}
		node = child
	}
	return node, parts[len(parts)-1], nil
}

// mergeInto deep-merges src into dst. Nested maps merge key by key; any other
// value in src replaces the one in dst.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
		}
		dst[k] = deepCopy(v)
	}
}

// nest places content under the dotted or slash separated package path.
func nest(pkg string, content map[string]any) map[string]any {
	parts := strings.FieldsFunc(pkg, func(r rune) bool { return r == '.' || r == '/' })
	out := content
	for i := len(parts) - 1; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// normalize converts decoder output so every mapping is map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
