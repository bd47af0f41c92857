package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
	"github.com/vk/exprun/internal/pathres"
)

// Merger resolves a document's full inheritance lineage into one payload.
type Merger struct {
	loader  config.Loader
	workDir string
}

// New returns a merger that loads documents through loader and resolves
// bare __default__ references against workDir, the process's original
// working directory.
func New(loader config.Loader, workDir string) *Merger {
	return &Merger{loader: loader, workDir: workDir}
}

// Merge loads the document at path, recursively merges its parents in
// listed order, and overlays the document's own payload on top under its
// own new-key policy. It returns the fully folded payload and run section.
// Any error in a nested parent aborts the whole resolution.
func (m *Merger) Merge(ctx context.Context, path string) (config.Payload, config.RunSection, error) {
	logger := ctxlog.FromContext(ctx)

	doc, err := m.loader.Load(ctx, path)
	if err != nil {
		return nil, config.RunSection{}, err
	}

	// A document with no lineage is its own result; nothing is "new"
	// relative to nothing, so the policy does not apply.
	if len(doc.Defaults) == 0 {
		return doc.Payload.Copy(), doc.Run, nil
	}

	parents := config.Payload{}
	var run config.RunSection
	for _, ref := range doc.Defaults {
		parentPath, err := pathres.Resolve(ref, doc.Path, m.workDir)
		if err != nil {
			return nil, config.RunSection{}, err
		}
		logger.Debug("Merging parent document.", "child", doc.Path, "parent", parentPath)

		parentPayload, parentRun, err := m.Merge(ctx, parentPath)
		if err != nil {
			return nil, config.RunSection{}, err
		}

		// Parents fold into each other freely; only the child's own keys
		// are subject to the new-key policy.
		parents, err = overlay(parents, parentPayload, config.PolicyPass, logger, "")
		if err != nil {
			return nil, config.RunSection{}, fmt.Errorf("merging %s: %w", parentPath, err)
		}
		run = run.Override(parentRun)
	}

	merged, err := overlay(parents, doc.Payload, doc.Policy, logger, "")
	if err != nil {
		return nil, config.RunSection{}, fmt.Errorf("merging %s: %w", doc.Path, err)
	}
	return merged, run.Override(doc.Run), nil
}

// overlay deep-merges over onto base, returning a new tree. Scalar keys in
// over win; nested mappings merge key by key; a mapping never silently
// replaces a scalar or vice versa. Keys absent from base are handled per
// policy, except keys spelled with a leading "__", which are control-style
// and always allowed.
func overlay(base, over config.Payload, policy config.NewKeyPolicy, logger *slog.Logger, prefix string) (config.Payload, error) {
	out := base.Copy()
	for _, key := range config.SortedKeys(over) {
		value := over[key]
		dotted := key
		if prefix != "" {
			dotted = prefix + "." + key
		}

		existing, ok := out[key]
		if !ok {
			if !strings.HasPrefix(key, "__") {
				switch policy {
				case config.PolicyRaise:
					return nil, &config.NewKeyError{Key: dotted}
				case config.PolicyWarn:
					logger.Warn("Adding new key to configuration.", "key", dotted)
				}
			}
			out[key] = copyValue(value)
			continue
		}

		subOver, overIsMap := value.(config.Payload)
		subBase, baseIsMap := existing.(config.Payload)
		switch {
		case overIsMap && baseIsMap:
			merged, err := overlay(subBase, subOver, policy, logger, dotted)
			if err != nil {
				return nil, err
			}
			out[key] = merged
		case overIsMap != baseIsMap:
			return nil, &config.ConflictError{
				Key:    dotted,
				Parent: config.Kind(existing),
				Child:  config.Kind(value),
			}
		default:
			out[key] = value
		}
	}
	return out, nil
}

func copyValue(v any) any {
	if sub, ok := v.(config.Payload); ok {
		return sub.Copy()
	}
	return v
}
