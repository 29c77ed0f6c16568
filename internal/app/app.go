// Package app wires the engine together for the command line: it builds an
// isolated logger and component registry, then dispatches the serve, validate
// and inspect commands.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/formweave/internal/componentlib"
	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Without explicit libraries the reference component library is registered.
func NewApp(outW io.Writer, cfg *Config, libs ...registry.Library) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(libs) == 0 {
		libs = []registry.Library{componentlib.New()}
	}
	for _, lib := range libs {
		lib.Register(reg)
	}
	ctxlog.FromContext(ctx).Debug("Component libraries registered.",
		"libraries", len(libs), "components", len(reg.Types()))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
