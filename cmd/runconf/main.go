package main

import (
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eugenenazirov/runconf/internal/application"
	"github.com/eugenenazirov/runconf/internal/config"
	"github.com/eugenenazirov/runconf/internal/logging"
)

func main() {
	kingpinApp := kingpin.New("runconf", "Compose layered YAML configuration and set up run logging")
	configDir := kingpinApp.Flag("config-dir", "Directory holding config sources (default: nearest conf/ directory)").String()
	configName := kingpinApp.Flag("config-name", "Primary config source name").Default(config.DefaultConfigName).String()
	logLevel := kingpinApp.Flag("log-level", "Logging level: DEBUG, INFO, WARNING, ERROR or CRITICAL").String()
	logFile := kingpinApp.Flag("log-file", "Explicit log file path").String()
	logDir := kingpinApp.Flag("log-dir", "Directory for timestamped log files").String()
	overrides := kingpinApp.Arg("overrides", "Config overrides: key=value, +key=value, ++key=value, ~key, group=option").Strings()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	opts := application.Options{
		ConfigDir:  *configDir,
		ConfigName: *configName,
		Overrides:  *overrides,
		LogLevel:   *logLevel,
		LogFile:    *logFile,
		LogDir:     *logDir,
	}

	os.Exit(execute(opts, os.Stdout, logging.NewBootstrap(os.Stderr, "runconf")))
}

// execute runs the command and returns the process exit code. Failures are
// reported through logger, which outlives the sinks set up by run.
func execute(opts application.Options, out io.Writer, logger *zap.Logger) int {
	if err := run(opts, out); err != nil {
		logger.Error("run failed", zap.Error(err))
		_ = logger.Sync()
		return 1
	}
	return 0
}

func run(opts application.Options, out io.Writer) (err error) {
	app, err := application.New(opts)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, app.Close())
	}()

	return app.Run(out)
}
