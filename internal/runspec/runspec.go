// Package runspec validates the folded __run__ section and turns it into
// an executable run descriptor. It does not import or invoke the entry
// point itself; that is the registry and workspace collaborators' job.
package runspec

import (
	"context"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
	"github.com/vk/exprun/internal/resolve"
)

// Descriptor is the validated, fully resolved run metadata handed to the
// execution collaborators, together with the resolved user payload.
type Descriptor struct {
	// Main is the entry point reference, in "module:function" form.
	Main string
	// Name is the experiment name.
	Name string
	// OutputDir is the base directory experiment directories live under.
	OutputDir string
	// Code is the optional directory holding the code to snapshot. Empty
	// means unset.
	Code string
	// Payload is the resolved user configuration.
	Payload config.Payload
}

// Extract validates the folded run section and resolves its fields using
// the already-resolved payload as the self-reference namespace.
func Extract(ctx context.Context, payload config.Payload, run config.RunSection, r *resolve.Resolver) (*Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	mandatory := []struct {
		field string
		value string
	}{
		{config.KeyMain, run.Main},
		{config.KeyName, run.Name},
		{config.KeyOutputDir, run.OutputDir},
	}
	for _, f := range mandatory {
		if f.value == "" {
			return nil, &config.IncompleteRunSpecError{Field: f.field}
		}
	}

	flat := config.Flatten(payload)
	desc := &Descriptor{Payload: payload}

	var err error
	if desc.Main, err = r.ResolveString(config.KeyMain, run.Main, flat); err != nil {
		return nil, err
	}
	if desc.Name, err = r.ResolveString(config.KeyName, run.Name, flat); err != nil {
		return nil, err
	}
	if desc.OutputDir, err = r.ResolveString(config.KeyOutputDir, run.OutputDir, flat); err != nil {
		return nil, err
	}
	if run.Code != "" {
		if desc.Code, err = r.ResolveString(config.KeyCode, run.Code, flat); err != nil {
			return nil, err
		}
	}

	logger.Debug("Run descriptor extracted.",
		"main", desc.Main, "name", desc.Name, "output_dir", desc.OutputDir)
	return desc, nil
}
