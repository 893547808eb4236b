package config

import (
	"fmt"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// Mapping is a composed, read-only configuration document. Accessors return
// copies, so callers cannot change a Mapping after it has been built. The zero
// value is an empty document.
type Mapping struct {
	data map[string]any
}

// NewMapping builds a Mapping from a copy of data.
func NewMapping(data map[string]any) Mapping {
	if data == nil {
		return Mapping{}
	}
	return Mapping{data: normalize(deepCopy(data)).(map[string]any)}
}

// Get returns a copy of the value at a dotted path. List elements are
// addressed by index, e.g. "servers.0.host".
func (m Mapping) Get(path string) (any, bool) {
	if path == "" {
		return m.ToMap(), true
	}
	v, ok := lookup(m.data, path)
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

// Has reports whether path exists.
func (m Mapping) Has(path string) bool {
	_, ok := lookup(m.data, path)
	return ok
}

// Sub returns the mapping stored at path.
func (m Mapping) Sub(path string) (Mapping, bool) {
	v, ok := lookup(m.data, path)
	if !ok {
		return Mapping{}, false
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return Mapping{}, false
	}
	return Mapping{data: deepCopy(sub).(map[string]any)}, true
}

// Keys returns the top-level keys in sorted order.
func (m Mapping) Keys() []string {
	return sortedKeys(m.data)
}

// Len returns the number of top-level keys.
func (m Mapping) Len() int {
	return len(m.data)
}

func (m Mapping) value(path string) (any, error) {
	v, ok := lookup(m.data, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
	}
	return v, nil
}

// String returns the string at path.
func (m Mapping) String(path string) (string, error) {
	v, err := m.value(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not string", ErrTypeMismatch, path, v)
	}
	return s, nil
}

// Int returns the integer at path.
func (m Mapping) Int(path string) (int, error) {
	v, err := m.value(path)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, not int", ErrTypeMismatch, path, v)
	}
}

// Float returns the number at path.
func (m Mapping) Float(path string) (float64, error) {
	v, err := m.value(path)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, not float", ErrTypeMismatch, path, v)
	}
}

// Bool returns the boolean at path.
func (m Mapping) Bool(path string) (bool, error) {
	v, err := m.value(path)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, not bool", ErrTypeMismatch, path, v)
	}
	return b, nil
}

// Duration parses the string at path with time.ParseDuration.
func (m Mapping) Duration(path string) (time.Duration, error) {
	s, err := m.String(path)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, path, err)
	}
	return d, nil
}

// ToMap returns an independent deep copy of the document.
func (m Mapping) ToMap() map[string]any {
	if m.data == nil {
		return map[string]any{}
	}
	return deepCopy(m.data).(map[string]any)
}

// Decode fills out, a pointer to a struct with yaml tags, from the document.
func (m Mapping) Decode(out any) error {
	data, err := m.YAML()
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// YAML renders the document with sorted keys.
func (m Mapping) YAML() ([]byte, error) {
	data, err := yaml.Marshal(m.ToMap())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Equal reports structural equality.
func (m Mapping) Equal(other Mapping) bool {
	if len(m.data) == 0 && len(other.data) == 0 {
		return true
	}
	return reflect.DeepEqual(m.data, other.data)
}

// Format renders the document as YAML for %v and %s.
func (m Mapping) Format(f fmt.State, verb rune) {
	data, err := m.YAML()
	if err != nil {
		fmt.Fprintf(f, "%%!%c(%v)", verb, err)
		return
	}
	_, _ = f.Write(data)
}
