// Package hello is the built-in example entry point. It logs the
// experiment name, the resolved configuration it received, and the
// directory it runs in.
package hello

import (
	"context"
	"os"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
	"github.com/vk/exprun/internal/registry"
	"github.com/vk/exprun/internal/yamlcfg"
)

// Ref is the reference the module registers under, for use in __main__.
const Ref = "hello:run"

// Module registers the hello entry point.
type Module struct{}

// Register implements registry.Module.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Ref, Run)
}

// Run greets from inside the prepared experiment directory.
func Run(ctx context.Context, name string, cfg config.Payload) error {
	logger := ctxlog.FromContext(ctx)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	rendered, err := yamlcfg.Encode(cfg, nil)
	if err != nil {
		return err
	}

	logger.Info("Hello from experiment.", "name", name, "cwd", cwd)
	logger.Info("Resolved configuration.", "config", string(rendered))
	return nil
}
