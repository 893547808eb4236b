package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var fileLinePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\t`)

func fixedClock() time.Time {
	return time.Date(2026, time.January, 29, 14, 30, 52, 0, time.Local)
}

func newTestManager(t *testing.T) (*Manager, *bytes.Buffer) {
	t.Helper()

	console := &bytes.Buffer{}
	m := NewManager(WithConsole(console), WithClock(fixedClock))
	t.Cleanup(func() {
		_ = m.Shutdown()
	})
	return m, console
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestGenerateLogFilename(t *testing.T) {
	m, _ := newTestManager(t)
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	path, err := m.GenerateLogFilename(dir)
	if err != nil {
		t.Fatalf("GenerateLogFilename returned error: %v", err)
	}
	if want := filepath.Join(dir, "29012026_143052.log"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory %s to exist: %v", dir, err)
	}

	again, err := m.GenerateLogFilename(dir)
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}
	if again != path {
		t.Fatalf("expected identical names within the same second, got %s and %s", path, again)
	}
}

func TestGenerateLogFilenameRealClock(t *testing.T) {
	dir := t.TempDir()

	path, err := GenerateLogFilename(dir)
	if err != nil {
		t.Fatalf("GenerateLogFilename returned error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected path under %s, got %s", dir, path)
	}
	if !regexp.MustCompile(`^\d{8}_\d{6}\.log$`).MatchString(filepath.Base(path)) {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
}

func TestSetupWritesFileAndConsole(t *testing.T) {
	m, console := newTestManager(t)
	dir := filepath.Join(t.TempDir(), "logs")

	path, err := m.Setup("DEBUG", "", dir)
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if want := filepath.Join(dir, "29012026_143052.log"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}

	m.Named("worker").Debug("x")

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 file lines, got %d: %q", len(lines), lines)
	}
	for _, line := range lines {
		if !fileLinePattern.MatchString(line) {
			t.Fatalf("file line missing timestamp prefix: %q", line)
		}
	}
	if want := "[INFO] root: Initialized logging. Log file: " + path; !strings.HasSuffix(lines[0], "\t"+want) {
		t.Fatalf("unexpected confirmation line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "\t[DEBUG] worker: x") {
		t.Fatalf("unexpected debug line: %q", lines[1])
	}

	want := "[INFO] root: Initialized logging. Log file: " + path + "\n[DEBUG] worker: x\n"
	if console.String() != want {
		t.Fatalf("unexpected console output:\n%s\nwant:\n%s", console.String(), want)
	}
}

func TestSetupRespectsThreshold(t *testing.T) {
	m, console := newTestManager(t)
	path := filepath.Join(t.TempDir(), "run.log")

	if _, err := m.Setup("warning", path, ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if m.Level() != zapcore.WarnLevel {
		t.Fatalf("expected WARN threshold, got %s", m.Level())
	}
	console.Reset()

	logger := m.Named("app")
	logger.Info("hidden")
	logger.Warn("careful")
	logger.DPanic("boom")

	want := "[WARNING] app: careful\n[CRITICAL] app: boom\n"
	if console.String() != want {
		t.Fatalf("unexpected console output: %q", console.String())
	}

	lines := readLines(t, path)
	// The confirmation line is below the threshold.
	if len(lines) != 2 {
		t.Fatalf("expected 2 file lines, got %q", lines)
	}
}

func TestSetupAppendsFields(t *testing.T) {
	m, console := newTestManager(t)

	if _, err := m.Setup("INFO", filepath.Join(t.TempDir(), "run.log"), ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	console.Reset()

	m.Logger().With(zap.String("job", "train")).Info("epoch done", zap.Int("epoch", 3))

	if want := "[INFO] root: epoch done {\"job\":\"train\",\"epoch\":3}\n"; console.String() != want {
		t.Fatalf("unexpected console output: %q", console.String())
	}
}

func TestSetupDefaultsToInfo(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Setup("", filepath.Join(t.TempDir(), "run.log"), ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if m.Level() != zapcore.InfoLevel {
		t.Fatalf("expected INFO threshold, got %s", m.Level())
	}
}

func TestSetupReplacesSinks(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()

	first := filepath.Join(dir, "first.log")
	if _, err := m.Setup("INFO", first, ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	logger := m.Named("early")
	firstFile := m.sinks.Load().file

	for i, name := range []string{"second.log", "third.log"} {
		if _, err := m.Setup("INFO", filepath.Join(dir, name), ""); err != nil {
			t.Fatalf("Setup #%d returned error: %v", i+2, err)
		}
		if sinks := m.Sinks(); !slices.Equal(sinks, []SinkKind{SinkFile, SinkConsole}) {
			t.Fatalf("expected exactly file and console sinks, got %v", sinks)
		}
	}

	if _, err := firstFile.Write([]byte("late")); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("expected previous log file to be closed, got %v", err)
	}

	logger.Info("after reconfigure")

	third := readLines(t, filepath.Join(dir, "third.log"))
	if !strings.HasSuffix(third[len(third)-1], "[INFO] early: after reconfigure") {
		t.Fatalf("expected logger obtained earlier to follow the new sinks, got %q", third)
	}
	if got := readLines(t, first); len(got) != 1 {
		t.Fatalf("expected first log to hold only its confirmation line, got %q", got)
	}
}

func TestSetupInvalidLevelLeavesSinks(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "run.log")

	if _, err := m.Setup("DEBUG", path, ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	before := m.sinks.Load()

	if _, err := m.Setup("bogus", "", t.TempDir()); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
	if m.sinks.Load() != before {
		t.Fatalf("expected sink set to be unchanged")
	}
	if m.FilePath() != path || m.Level() != zapcore.DebugLevel {
		t.Fatalf("expected previous configuration to remain, got %s at %s", m.FilePath(), m.Level())
	}
}

func TestSetupOpenFailureKeepsSinks(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")

	if _, err := m.Setup("INFO", path, ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if _, err := m.Setup("INFO", filepath.Join(blocker, "run.log"), ""); err == nil {
		t.Fatalf("expected error when the parent path is a file")
	}
	if m.FilePath() != path || len(m.Sinks()) != 2 {
		t.Fatalf("expected previous sinks to stay attached, got %v at %s", m.Sinks(), m.FilePath())
	}
}

func TestShutdown(t *testing.T) {
	m, console := newTestManager(t)

	if _, err := m.Setup("INFO", filepath.Join(t.TempDir(), "run.log"), ""); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	file := m.sinks.Load().file

	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if len(m.Sinks()) != 0 || m.FilePath() != "" {
		t.Fatalf("expected no sinks after shutdown, got %v", m.Sinks())
	}
	if _, err := file.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("expected log file to be closed, got %v", err)
	}

	console.Reset()
	m.Logger().Error("dropped")
	if console.Len() != 0 {
		t.Fatalf("expected records to be dropped after shutdown, got %q", console.String())
	}
	if err := m.Shutdown(); err != nil {
		t.Fatalf("second Shutdown returned error: %v", err)
	}
}

func TestGlobalSetupReplacesZapGlobals(t *testing.T) {
	t.Cleanup(func() {
		_ = Shutdown()
	})

	path := filepath.Join(t.TempDir(), "global.log")
	got, err := Setup("INFO", path, "")
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if got != path {
		t.Fatalf("expected %s, got %s", path, got)
	}
	if zap.L() != L() {
		t.Fatalf("expected zap global logger to be the root logger")
	}

	Named("global").Info("hello")
	lines := readLines(t, path)
	if !strings.HasSuffix(lines[len(lines)-1], "[INFO] global: hello") {
		t.Fatalf("unexpected file contents: %q", lines)
	}
}
