package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultSearchPath is the directory holding the project's config sources.
	DefaultSearchPath = "conf"
	// DefaultConfigName is the primary source composed by Load.
	DefaultConfigName = "config"
)

// Load composes the primary config from the project's conf directory.
// Every call reads the sources again.
func Load() (Mapping, error) {
	searchPath, err := ResolveSearchPath(DefaultSearchPath)
	if err != nil {
		return Mapping{}, err
	}
	return LoadFrom(searchPath, DefaultConfigName)
}

// LoadFrom composes name from searchPath inside a fresh composition context
// and releases the context before returning, also on failure.
func LoadFrom(searchPath, name string, overrides ...string) (Mapping, error) {
	ctx, err := Initialize(searchPath)
	if err != nil {
		return Mapping{}, err
	}
	defer ctx.Clear()

	cfg, err := ctx.Compose(name, overrides...)
	if err != nil {
		return Mapping{}, fmt.Errorf("compose %s: %w", name, err)
	}
	return cfg, nil
}

// ResolveSearchPath locates a directory relative to the project root by
// walking up the directory tree from the working directory.
func ResolveSearchPath(relative string) (string, error) {
	if filepath.IsAbs(relative) {
		if isDir(relative) {
			return relative, nil
		}
		return "", fmt.Errorf("%w: search path %s", ErrConfigNotFound, relative)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if isDir(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: unable to locate %s", ErrConfigNotFound, relative)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
