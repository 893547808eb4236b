package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultsKey = "defaults"
	selfEntry   = "_self_"
)

// defaultsEntry is one item of a defaults list.
type defaultsEntry struct {
	self     bool
	name     string // plain source in the same directory
	group    string // config group, relative to the declaring file
	option   string // selected option; empty means none
	optional bool
}

type composer struct {
	root      string
	overrides []override

	// group path -> option chosen on the command line
	selections map[string]string
	// group paths removed with ~group
	removals map[string]bool
	// indexes of overrides consumed as group selections
	consumed map[int]bool
}

func newComposer(root string, overrides []override) *composer {
	return &composer{
		root:       root,
		overrides:  overrides,
		selections: map[string]string{},
		removals:   map[string]bool{},
		consumed:   map[int]bool{},
	}
}

// composePrimary loads the primary source with its defaults list and any
// groups appended through +group=option overrides.
func (c *composer) composePrimary(name string) (map[string]any, error) {
	for _, o := range c.overrides {
		switch o.kind {
		case overrideSet:
			c.selections[o.key] = o.raw
		case overrideDelete:
			c.removals[o.key] = true
		}
	}

	tree, err := c.load("", name, nil)
	if err != nil {
		return nil, err
	}

	for i, o := range c.overrides {
		if o.kind != overrideAdd || !c.isGroupOption(o.key, o.raw) {
			continue
		}
		content, err := c.load(o.key, o.raw, nil)
		if err != nil {
			return nil, err
		}
		mergeInto(tree, nest(o.key, content))
		c.consumed[i] = true
	}
	return tree, nil
}

// load reads group/name and folds in its defaults list. The result is
// relative to the file's own package; callers nest it.
func (c *composer) load(group, name string, stack []string) (map[string]any, error) {
	id := path.Join(group, name)
	if slices.Contains(stack, id) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrDefaultsCycle, strings.Join(stack, " -> "), id)
	}
	stack = append(stack, id)

	doc, err := c.read(group, name)
	if err != nil {
		return nil, err
	}
	entries, err := extractDefaults(doc, id)
	if err != nil {
		return nil, err
	}

	result := map[string]any{}
	selfMerged := false
	for _, entry := range entries {
		switch {
		case entry.self:
			mergeInto(result, doc)
			selfMerged = true
		case entry.group == "":
			content, err := c.load(group, entry.name, stack)
			if err != nil {
				return nil, err
			}
			mergeInto(result, content)
		default:
			groupPath := path.Join(group, entry.group)
			option := c.selectOption(groupPath, entry.option)
			if option == "" {
				continue
			}
			if entry.optional && !c.isGroupOption(groupPath, option) {
				continue
			}
			content, err := c.load(groupPath, option, stack)
			if err != nil {
				return nil, err
			}
			mergeInto(result, nest(entry.group, content))
		}
	}
	if !selfMerged {
		mergeInto(result, doc)
	}
	return result, nil
}

// selectOption applies command line selections and removals to a group.
func (c *composer) selectOption(groupPath, option string) string {
	for i, o := range c.overrides {
		if o.key == groupPath && (o.kind == overrideSet || o.kind == overrideDelete) {
			c.consumed[i] = true
		}
	}
	if c.removals[groupPath] {
		return ""
	}
	if sel, ok := c.selections[groupPath]; ok {
		return sel
	}
	return option
}

func (c *composer) isGroupOption(group, option string) bool {
	for _, ext := range []string{".yaml", ".yml"} {
		if _, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(group), option+ext)); err == nil {
			return true
		}
	}
	return false
}

// read decodes one source file into a mapping.
func (c *composer) read(group, name string) (map[string]any, error) {
	base := filepath.Join(c.root, filepath.FromSlash(group), name)

	var (
		data []byte
		file string
		err  error
	)
	for _, ext := range []string{".yaml", ".yml"} {
		file = base + ext
		data, err = os.ReadFile(file)
		if !errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigNotFound, path.Join(group, name), err)
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", file, err)
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	doc, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must contain a mapping at the top level", ErrTypeMismatch, file)
	}
	return doc, nil
}

// extractDefaults removes the defaults key from doc and parses it.
func extractDefaults(doc map[string]any, id string) ([]defaultsEntry, error) {
	raw, ok := doc[defaultsKey]
	if !ok {
		return nil, nil
	}
	delete(doc, defaultsKey)

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: defaults must be a list", ErrInvalidDefaults, id)
	}

	entries := make([]defaultsEntry, 0, len(items))
	for _, item := range items {
		entry, err := parseDefaultsEntry(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefaults, id, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseDefaultsEntry(item any) (defaultsEntry, error) {
	switch v := item.(type) {
	case string:
		if v == selfEntry {
			return defaultsEntry{self: true}, nil
		}
		if v == "" {
			return defaultsEntry{}, errors.New("empty entry")
		}
		return defaultsEntry{name: v}, nil
	case map[string]any:
		if len(v) != 1 {
			return defaultsEntry{}, fmt.Errorf("entry must have exactly one key, got %d", len(v))
		}
		for key, value := range v {
			entry := defaultsEntry{group: key}
			if rest, ok := strings.CutPrefix(key, "optional "); ok {
				entry.group = strings.TrimSpace(rest)
				entry.optional = true
			}
			switch opt := value.(type) {
			case nil:
			case string:
				entry.option = opt
			default:
				return defaultsEntry{}, fmt.Errorf("option for group %q must be a string or null", entry.group)
			}
			return entry, nil
		}
	}
	return defaultsEntry{}, fmt.Errorf("unsupported entry %v", item)
}
