package app

import (
	"context"
	"fmt"

	"github.com/vk/exprun/internal/ctxlog"
	"github.com/vk/exprun/internal/merge"
	"github.com/vk/exprun/internal/resolve"
	"github.com/vk/exprun/internal/runspec"
	"github.com/vk/exprun/internal/workspace"
)

// Run executes one invocation: merge the configuration lineage, apply
// overrides, resolve variables, extract the run descriptor, prepare the
// experiment workspace, and invoke the entry point inside it. Any error in
// any stage aborts the whole run; no partial configuration is ever handed
// to the entry point.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "config", appConfig.ConfigPath)

	merger := merge.New(a.loader, a.workDir)
	payload, run, err := merger.Merge(ctx, appConfig.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to merge configuration: %w", err)
	}
	a.logger.Debug("Configuration lineage folded.")

	payload, err = merge.ApplyOverrides(payload, appConfig.Overrides)
	if err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}

	// The raw snapshot keeps the merged-but-unresolved form, overrides
	// included, so the run can later be re-resolved against a different
	// environment.
	rawPayload := payload.Copy()

	resolver := resolve.New(a.env)
	resolved, err := resolver.Resolve(ctx, payload)
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}
	a.logger.Debug("Variables resolved.")

	desc, err := runspec.Extract(ctx, resolved, run, resolver)
	if err != nil {
		return fmt.Errorf("failed to extract run descriptor: %w", err)
	}

	ws, err := workspace.Prepare(ctx, desc, rawPayload, run, workspace.Options{
		Debug:   appConfig.Debug,
		WorkDir: a.workDir,
	})
	if err != nil {
		return fmt.Errorf("failed to prepare workspace: %w", err)
	}

	// From here on the run logs into the combined experiment log too.
	runLogger := newLogger(appConfig.LogLevel, appConfig.LogFormat, ws.LogWriter())
	ctx = ctxlog.WithLogger(ctx, runLogger)
	runLogger.Info("🚀 Starting experiment.", "name", desc.Name, "dir", ws.Dir)

	callErr := a.registry.Call(ctx, desc.Main, desc.Name, desc.Payload)
	if callErr == nil {
		runLogger.Info("🏁 Experiment finished.", "name", desc.Name)
	}

	closeErr := ws.Close(ctx)
	if callErr != nil {
		return callErr
	}
	return closeErr
}
