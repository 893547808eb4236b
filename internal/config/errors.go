package config

import "errors"

var (
	// ErrAlreadyInitialized is returned when a composition context is acquired while another one is active.
	ErrAlreadyInitialized = errors.New("composition context is already initialized")
	// ErrContextClosed is returned when composing through a context that has been cleared.
	ErrContextClosed = errors.New("composition context has been cleared")
	// ErrConfigNotFound is returned when a named source has no file in the search path.
	ErrConfigNotFound = errors.New("config source not found")
	// ErrInvalidDefaults is returned when a defaults list entry cannot be interpreted.
	ErrInvalidDefaults = errors.New("invalid defaults list")
	// ErrDefaultsCycle is returned when defaults lists include each other.
	ErrDefaultsCycle = errors.New("cycle in defaults list")
	// ErrInvalidOverride is returned for malformed override strings.
	ErrInvalidOverride = errors.New("invalid override")
	// ErrKeyExists is returned when an add override targets an existing key.
	ErrKeyExists = errors.New("key already exists")
	// ErrKeyNotFound is returned when a path does not exist in the configuration.
	ErrKeyNotFound = errors.New("key not found")
	// ErrTypeMismatch is returned when a value does not have the requested type.
	ErrTypeMismatch = errors.New("unexpected value type")
	// ErrInterpolation is returned when a ${...} expression cannot be resolved.
	ErrInterpolation = errors.New("cannot resolve interpolation")
)
