package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SinkKind identifies an attached output destination.
type SinkKind string

const (
	SinkFile    SinkKind = "file"
	SinkConsole SinkKind = "console"
)

const filenameLayout = "02012006_150405"

// sinkSet is an immutable snapshot of the attached sinks. A Manager swaps
// whole snapshots, so readers never observe a partially built set.
type sinkSet struct {
	level zapcore.Level
	path  string
	file  *os.File
	cores []zapcore.Core
	kinds []SinkKind
}

func (s *sinkSet) close() error {
	if s.file == nil {
		return nil
	}
	return multierr.Append(s.file.Sync(), s.file.Close())
}

// Manager owns a root logger and the sink set it writes to. Setup and
// Shutdown are serialized, but a record written concurrently with either may
// still reach the previous file after it is closed and be lost.
type Manager struct {
	mu      sync.Mutex
	sinks   atomic.Pointer[sinkSet]
	root    *zap.Logger
	console zapcore.WriteSyncer
	clock   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithConsole redirects the console sink, primarily for tests.
func WithConsole(w io.Writer) Option {
	return func(m *Manager) {
		m.console = zapcore.Lock(zapcore.AddSync(w))
	}
}

// WithClock overrides the time source used for generated file names.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager returns a Manager with no sinks attached. Its root logger drops
// every record until Setup is called.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		console: zapcore.Lock(os.Stderr),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sinks.Store(&sinkSet{level: zapcore.WarnLevel})
	m.root = zap.New(&rootCore{m: m})
	return m
}

// GenerateLogFilename creates logDir if needed and returns a path inside it
// named after the current local time, e.g. logs/29012026_143052.log.
// Calls within the same second return the same path.
func (m *Manager) GenerateLogFilename(logDir string) (string, error) {
	if logDir == "" {
		logDir = DefaultLogDir
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return filepath.Join(logDir, m.clock().Format(filenameLayout)+".log"), nil
}

// Setup replaces the sink set with one file sink and one console sink at the
// given level and returns the log file path. outputFile is used verbatim when
// set; otherwise a timestamped file is created under logDir.
//
// An invalid level is rejected before anything changes. If the new file cannot
// be opened the previous sinks stay attached.
func (m *Manager) Setup(level, outputFile, logDir string) (string, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path, err := m.resolvePath(outputFile, logDir)
	if err != nil {
		return "", err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}

	next := &sinkSet{
		level: lvl,
		path:  path,
		file:  file,
		cores: []zapcore.Core{
			zapcore.NewCore(newFileEncoder(), zapcore.Lock(file), lvl),
			zapcore.NewCore(newConsoleEncoder(), m.console, lvl),
		},
		kinds: []SinkKind{SinkFile, SinkConsole},
	}

	prev := m.sinks.Swap(next)
	if err := prev.close(); err != nil {
		m.root.Warn("failed to close previous log file",
			zap.String("path", prev.path), zap.Error(err))
	}

	m.root.Info("Initialized logging. Log file: " + path)
	return path, nil
}

func (m *Manager) resolvePath(outputFile, logDir string) (string, error) {
	if outputFile == "" {
		return m.GenerateLogFilename(logDir)
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return outputFile, nil
}

// Shutdown detaches all sinks and closes the log file.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.sinks.Swap(&sinkSet{level: m.sinks.Load().level})
	return prev.close()
}

// Logger returns the root logger. It stays valid across reconfigurations.
func (m *Manager) Logger() *zap.Logger {
	return m.root
}

// Named returns a child of the root logger printed under name.
func (m *Manager) Named(name string) *zap.Logger {
	return m.root.Named(name)
}

// Sinks lists the currently attached sinks.
func (m *Manager) Sinks() []SinkKind {
	kinds := m.sinks.Load().kinds
	out := make([]SinkKind, len(kinds))
	copy(out, kinds)
	return out
}

// Level returns the current severity threshold.
func (m *Manager) Level() zapcore.Level {
	return m.sinks.Load().level
}

// FilePath returns the path of the attached log file, or "" when none is.
func (m *Manager) FilePath() string {
	return m.sinks.Load().path
}

// rootCore forwards every entry to whatever sink set the Manager holds at
// write time, so loggers derived before a reconfiguration follow it.
type rootCore struct {
	m      *Manager
	fields []zapcore.Field
}

func (c *rootCore) Enabled(level zapcore.Level) bool {
	s := c.m.sinks.Load()
	return len(s.cores) > 0 && level >= s.level
}

func (c *rootCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &rootCore{m: c.m, fields: merged}
}

func (c *rootCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *rootCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if len(c.fields) > 0 {
		fields = append(append(make([]zapcore.Field, 0, len(c.fields)+len(fields)), c.fields...), fields...)
	}

	var err error
	for _, core := range c.m.sinks.Load().cores {
		if core.Enabled(ent.Level) {
			err = multierr.Append(err, core.Write(ent, fields))
		}
	}
	return err
}

func (c *rootCore) Sync() error {
	var err error
	for _, core := range c.m.sinks.Load().cores {
		err = multierr.Append(err, core.Sync())
	}
	return err
}
