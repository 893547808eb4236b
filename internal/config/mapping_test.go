package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"
)

func sampleMapping() Mapping {
	return NewMapping(map[string]any{
		"name":    "run",
		"epochs":  10,
		"lr":      0.5,
		"debug":   true,
		"timeout": "1m30s",
		"servers": []any{
			map[string]any{"host": "a", "port": 80},
			map[string]any{"host": "b", "port": 81},
		},
		"db": map[string]any{"user": "root", "pool": map[any]any{1: "one"}},
	})
}

func TestMappingAccessors(t *testing.T) {
	m := sampleMapping()

	if s, err := m.String("name"); err != nil || s != "run" {
		t.Fatalf("String: %q %v", s, err)
	}
	if n, err := m.Int("epochs"); err != nil || n != 10 {
		t.Fatalf("Int: %d %v", n, err)
	}
	if f, err := m.Float("lr"); err != nil || f != 0.5 {
		t.Fatalf("Float: %v %v", f, err)
	}
	if f, err := m.Float("epochs"); err != nil || f != 10 {
		t.Fatalf("Float from int: %v %v", f, err)
	}
	if b, err := m.Bool("debug"); err != nil || !b {
		t.Fatalf("Bool: %v %v", b, err)
	}
	if d, err := m.Duration("timeout"); err != nil || d != 90*time.Second {
		t.Fatalf("Duration: %v %v", d, err)
	}
	if host, err := m.String("servers.1.host"); err != nil || host != "b" {
		t.Fatalf("list index: %q %v", host, err)
	}
	if v, err := m.String("db.pool.1"); err != nil || v != "one" {
		t.Fatalf("expected non-string keys to be normalized: %q %v", v, err)
	}

	if _, err := m.String("epochs"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := m.Int("missing.key"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := m.Duration("name"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for bad duration, got %v", err)
	}
	if _, ok := m.Get("servers.5"); ok {
		t.Fatalf("expected out-of-range index to be missing")
	}
}

func TestMappingIsReadOnly(t *testing.T) {
	source := map[string]any{"db": map[string]any{"user": "root"}}
	m := NewMapping(source)
	source["db"].(map[string]any)["user"] = "changed"

	if user, _ := m.String("db.user"); user != "root" {
		t.Fatalf("NewMapping kept a reference to its input")
	}

	got, _ := m.Get("db")
	got.(map[string]any)["user"] = "changed"
	sub, ok := m.Sub("db")
	if !ok {
		t.Fatalf("expected Sub to find db")
	}
	if user, _ := sub.String("user"); user != "root" {
		t.Fatalf("Get returned a shared value")
	}

	if _, ok := m.Sub("db.user"); ok {
		t.Fatalf("expected Sub on a scalar to fail")
	}
}

func TestMappingKeysAndEqual(t *testing.T) {
	m := sampleMapping()

	if keys := m.Keys(); !slices.Equal(keys, []string{"db", "debug", "epochs", "lr", "name", "servers", "timeout"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
	if m.Len() != 7 {
		t.Fatalf("unexpected length %d", m.Len())
	}
	if !m.Equal(sampleMapping()) {
		t.Fatalf("expected equal mappings")
	}
	if m.Equal(NewMapping(map[string]any{"name": "run"})) {
		t.Fatalf("expected different mappings")
	}
	if !(Mapping{}).Equal(NewMapping(map[string]any{})) {
		t.Fatalf("expected empty mappings to be equal")
	}
}

func TestMappingDecode(t *testing.T) {
	type server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	}
	var out struct {
		Name    string        `yaml:"name"`
		Epochs  int           `yaml:"epochs"`
		Timeout time.Duration `yaml:"timeout"`
		Servers []server      `yaml:"servers"`
	}

	if err := sampleMapping().Decode(&out); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := []server{{Host: "a", Port: 80}, {Host: "b", Port: 81}}
	if out.Name != "run" || out.Epochs != 10 || out.Timeout != 90*time.Second || !reflect.DeepEqual(out.Servers, want) {
		t.Fatalf("unexpected decode result %+v", out)
	}

	var bad struct {
		Name int `yaml:"name"`
	}
	if err := sampleMapping().Decode(&bad); err == nil {
		t.Fatalf("expected decode error for mismatched type")
	}
}

func TestMappingYAML(t *testing.T) {
	m := NewMapping(map[string]any{"b": 1, "a": map[string]any{"z": true, "x": "s"}})

	data, err := m.YAML()
	if err != nil {
		t.Fatalf("YAML returned error: %v", err)
	}
	want := "a:\n    x: s\n    z: true\nb: 1\n"
	if string(data) != want {
		t.Fatalf("unexpected YAML:\n%s", data)
	}
	if printed := fmt.Sprint(m); printed != want {
		t.Fatalf("expected fmt to print YAML, got %q", printed)
	}
	if !strings.Contains(fmt.Sprintf("%v", Mapping{}), "{}") {
		t.Fatalf("expected empty mapping to print as {}")
	}
}
