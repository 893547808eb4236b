package logging

import "go.uber.org/zap"

var std = NewManager()

// Setup configures the process-wide logger and installs its root as zap's
// global logger. See Manager.Setup.
func Setup(level, outputFile, logDir string) (string, error) {
	path, err := std.Setup(level, outputFile, logDir)
	if err != nil {
		return "", err
	}
	zap.ReplaceGlobals(std.Logger())
	return path, nil
}

// GenerateLogFilename returns a timestamped log path under logDir.
func GenerateLogFilename(logDir string) (string, error) {
	return std.GenerateLogFilename(logDir)
}

// L returns the process-wide root logger.
func L() *zap.Logger {
	return std.Logger()
}

// Named returns a process-wide logger printed under name.
func Named(name string) *zap.Logger {
	return std.Named(name)
}

// Shutdown closes the process-wide sinks.
func Shutdown() error {
	return std.Shutdown()
}
