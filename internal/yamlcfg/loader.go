package yamlcfg

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
)

// Loader implements config.Loader for YAML documents.
type Loader struct{}

// NewLoader returns a YAML document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the YAML file at path into the format-agnostic Document
// model. The top level must be a mapping. Reserved keys are extracted with
// their defaults applied; everything else becomes the payload. Load never
// recurses into __default__ references.
func (l *Loader) Load(ctx context.Context, path string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration document.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &config.PathResolutionError{Ref: path, From: path, Resolved: path}
		}
		return nil, &config.ParseError{Path: path, Err: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &config.ParseError{Path: path, Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &config.ParseError{Path: path, Err: errors.New("document is empty")}
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &config.ParseError{Path: path, Err: errors.New("top level must be a mapping")}
	}

	doc := &config.Document{
		Path:    path,
		Policy:  config.PolicyWarn,
		Payload: config.Payload{},
	}

	seen := map[string]bool{}
	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode, valNode := top.Content[i], top.Content[i+1]
		key := keyNode.Value
		if seen[key] {
			return nil, &config.ParseError{Path: path, Err: fmt.Errorf("duplicate key %q", key)}
		}
		seen[key] = true

		switch key {
		case config.KeyDefault:
			refs, err := l.defaultRefs(path, valNode)
			if err != nil {
				return nil, err
			}
			doc.Defaults = refs
		case config.KeyNewKeyPolicy:
			if valNode.Kind != yaml.ScalarNode {
				return nil, &config.SchemaError{Path: path, Key: key, Reason: "must be a string"}
			}
			policy, err := config.ParseNewKeyPolicy(valNode.Value, path)
			if err != nil {
				return nil, err
			}
			doc.Policy = policy
		case config.KeyRun:
			run, err := l.runSection(path, valNode)
			if err != nil {
				return nil, err
			}
			doc.Run = run
		default:
			if err := validKeyName(path, key, keyNode); err != nil {
				return nil, err
			}
			value, err := l.translate(path, key, valNode)
			if err != nil {
				return nil, err
			}
			doc.Payload[key] = value
		}
	}

	logger.Debug("Document loaded.",
		"path", path, "defaults", len(doc.Defaults), "policy", doc.Policy.String())
	return doc, nil
}

// defaultRefs reads __default__ as a single reference string or an ordered
// sequence of reference strings.
func (l *Loader) defaultRefs(path string, n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		if n.Value == "" {
			return nil, &config.SchemaError{Path: path, Key: config.KeyDefault, Reason: "reference must not be empty"}
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		refs := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" || item.Value == "" {
				return nil, &config.SchemaError{Path: path, Key: config.KeyDefault, Reason: "must be a string or a sequence of strings"}
			}
			refs = append(refs, item.Value)
		}
		return refs, nil
	default:
		return nil, &config.SchemaError{Path: path, Key: config.KeyDefault, Reason: "must be a string or a sequence of strings"}
	}
}

// runSection reads the reserved __run__ mapping. Values hold their raw,
// possibly templated string form; validation of mandatory fields happens
// after the full lineage is folded.
func (l *Loader) runSection(path string, n *yaml.Node) (config.RunSection, error) {
	var run config.RunSection
	if n.Kind != yaml.MappingNode {
		return run, &config.SchemaError{Path: path, Key: config.KeyRun, Reason: "must be a mapping"}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if valNode.Kind != yaml.ScalarNode {
			return run, &config.SchemaError{Path: path, Key: keyNode.Value, Reason: "run fields must be scalar"}
		}
		switch keyNode.Value {
		case config.KeyMain:
			run.Main = valNode.Value
		case config.KeyName:
			run.Name = valNode.Value
		case config.KeyOutputDir:
			run.OutputDir = valNode.Value
		case config.KeyCode:
			run.Code = valNode.Value
		default:
			return run, &config.SchemaError{Path: path, Key: keyNode.Value, Reason: "unknown __run__ field"}
		}
	}
	return run, nil
}

// validKeyName rejects key spellings the dotted-path addressing scheme
// cannot represent.
func validKeyName(path, dotted string, keyNode *yaml.Node) error {
	if keyNode.Kind != yaml.ScalarNode {
		return &config.ParseError{Path: path, Err: fmt.Errorf("mapping key near %q must be scalar", dotted)}
	}
	for _, r := range keyNode.Value {
		if r == '.' {
			return &config.SchemaError{Path: path, Key: dotted, Reason: "key names must not contain '.'"}
		}
	}
	if keyNode.Value == "" {
		return &config.SchemaError{Path: path, Key: dotted, Reason: "key names must not be empty"}
	}
	return nil
}
