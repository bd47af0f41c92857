package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/registry"
	"github.com/vk/exprun/internal/resolve"
	"github.com/vk/exprun/internal/yamlcfg"
)

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	loader   config.Loader
	registry *registry.Registry
	env      resolve.Environment
	workDir  string
}

// NewApp builds a fully initialized App with its own isolated logger and a
// registry populated from the given modules (the built-in set when none
// are passed). The working directory and environment are snapshotted here,
// before anything changes them.
func NewApp(outW io.Writer, appConfig *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Entry-point modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		logger:   logger,
		loader:   yamlcfg.NewLoader(),
		registry: reg,
		env:      resolve.SystemEnvironment(),
		workDir:  workDir,
	}, nil
}
