// Package config composes a read-only configuration document from layered YAML
// sources: a primary file, the config groups named in its defaults list, and
// command-line style overrides, with ${...} interpolation resolved last.
// Composition runs inside a process-wide context that is released after every
// load, so repeated loads never see state left behind by earlier ones.
package config
