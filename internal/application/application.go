package application

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/eugenenazirov/runconf/internal/config"
	"github.com/eugenenazirov/runconf/internal/logging"
)

const loggerName = "runconf"

// Options selects the config source and logging destination. Empty logging
// fields fall back to the composed config's logging section, then to the
// logging package defaults.
type Options struct {
	ConfigDir  string
	ConfigName string
	Overrides  []string

	LogLevel string
	LogFile  string
	LogDir   string

	// Logging receives the sink set; nil means the process-wide logger.
	Logging *logging.Manager
}

// App holds a composed configuration and the logger configured from it.
type App struct {
	cfg     config.Mapping
	logger  *zap.Logger
	logPath string
	logging *logging.Manager
}

// New composes the configuration and sets up logging.
func New(opts Options) (*App, error) {
	dir := opts.ConfigDir
	if dir == "" {
		resolved, err := config.ResolveSearchPath(config.DefaultSearchPath)
		if err != nil {
			return nil, err
		}
		dir = resolved
	}
	name := opts.ConfigName
	if name == "" {
		name = config.DefaultConfigName
	}

	cfg, err := config.LoadFrom(dir, name, opts.Overrides...)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	settings, err := resolveLogSettings(cfg, opts)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, logging: opts.Logging}
	if app.logging != nil {
		app.logPath, err = app.logging.Setup(settings.level, settings.file, settings.dir)
		app.logger = app.logging.Named(loggerName)
	} else {
		app.logPath, err = logging.Setup(settings.level, settings.file, settings.dir)
		app.logger = logging.Named(loggerName)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	app.logger.Debug("configuration composed",
		zap.String("dir", dir), zap.String("name", name), zap.Strings("overrides", opts.Overrides))
	return app, nil
}

type logSettings struct {
	level string
	file  string
	dir   string
}

func resolveLogSettings(cfg config.Mapping, opts Options) (logSettings, error) {
	s := logSettings{level: opts.LogLevel, file: opts.LogFile, dir: opts.LogDir}

	for _, field := range []struct {
		key string
		dst *string
	}{
		{"logging.level", &s.level},
		{"logging.file", &s.file},
		{"logging.dir", &s.dir},
	} {
		if *field.dst != "" {
			continue
		}
		value, err := cfg.String(field.key)
		if errors.Is(err, config.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return logSettings{}, fmt.Errorf("logging settings: %w", err)
		}
		*field.dst = value
	}
	return s, nil
}

// Run writes the composed configuration as YAML to out.
func (a *App) Run(out io.Writer) error {
	data, err := a.cfg.YAML()
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	a.logger.Info("config loaded", zap.Int("keys", a.cfg.Len()))
	return nil
}

// Config returns the composed configuration.
func (a *App) Config() config.Mapping {
	return a.cfg
}

// LogPath returns the file the logger writes to.
func (a *App) LogPath() string {
	return a.logPath
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close flushes and closes the log sinks.
func (a *App) Close() error {
	if a.logging != nil {
		return a.logging.Shutdown()
	}
	return logging.Shutdown()
}
