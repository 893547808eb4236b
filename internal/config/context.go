package config

import (
	"fmt"
	"os"
	"sync"
)

var (
	activeMu sync.Mutex
	active   *Context
)

// Context is the process-wide composition context. At most one exists at a
// time; it must be released with Clear so later loads start clean.
type Context struct {
	searchPath string
	cleared    bool
}

// Initialize acquires the composition context rooted at searchPath.
func Initialize(searchPath string) (*Context, error) {
	info, err := os.Stat(searchPath)
	if err != nil {
		return nil, fmt.Errorf("config search path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config search path %s is not a directory", searchPath)
	}

	activeMu.Lock()
	defer activeMu.Unlock()

	if active != nil {
		return nil, ErrAlreadyInitialized
	}
	active = &Context{searchPath: searchPath}
	return active, nil
}

// IsInitialized reports whether a composition context is currently held.
func IsInitialized() bool {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active != nil
}

// SearchPath returns the directory sources are resolved against.
func (c *Context) SearchPath() string {
	return c.searchPath
}

// Clear releases the context. It is safe to call more than once.
func (c *Context) Clear() {
	activeMu.Lock()
	defer activeMu.Unlock()

	c.cleared = true
	if active == c {
		active = nil
	}
}

// Compose builds the configuration named name, applying overrides in order.
// Each call reads the source files again.
func (c *Context) Compose(name string, overrides ...string) (Mapping, error) {
	activeMu.Lock()
	cleared := c.cleared
	activeMu.Unlock()
	if cleared {
		return Mapping{}, ErrContextClosed
	}

	parsed, err := parseOverrides(overrides)
	if err != nil {
		return Mapping{}, err
	}

	comp := newComposer(c.searchPath, parsed)
	tree, err := comp.composePrimary(name)
	if err != nil {
		return Mapping{}, err
	}
	if err := comp.applyValueOverrides(tree); err != nil {
		return Mapping{}, err
	}
	if err := resolveInterpolations(tree); err != nil {
		return Mapping{}, err
	}
	return Mapping{data: tree}, nil
}
