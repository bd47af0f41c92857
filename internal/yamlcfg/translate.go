package yamlcfg

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/exprun/internal/config"
)

// translate converts a YAML payload node into the agnostic model: mappings
// become config.Payload, sequences and scalars become cty.Value leaves.
// dotted is the node's dotted key path, used in diagnostics.
func (l *Loader) translate(path, dotted string, n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		return l.translateMapping(path, dotted, n)
	case yaml.SequenceNode:
		return l.translateSequence(path, dotted, n)
	case yaml.ScalarNode:
		return l.translateScalar(path, dotted, n)
	case yaml.AliasNode:
		return l.translate(path, dotted, n.Alias)
	default:
		return nil, &config.ParseError{Path: path, Err: fmt.Errorf("unsupported node at %q", dotted)}
	}
}

func (l *Loader) translateMapping(path, dotted string, n *yaml.Node) (config.Payload, error) {
	out := config.Payload{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if err := validKeyName(path, dotted, keyNode); err != nil {
			return nil, err
		}
		key := keyNode.Value
		if _, exists := out[key]; exists {
			return nil, &config.ParseError{Path: path, Err: fmt.Errorf("duplicate key %q under %q", key, dotted)}
		}
		childPath := key
		if dotted != "" {
			childPath = dotted + "." + key
		}
		value, err := l.translate(path, childPath, valNode)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// translateSequence builds a tuple of scalar leaves. The configuration
// language does not support sequences of mappings or nested sequences.
func (l *Loader) translateSequence(path, dotted string, n *yaml.Node) (cty.Value, error) {
	if len(n.Content) == 0 {
		return cty.EmptyTupleVal, nil
	}
	elems := make([]cty.Value, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind == yaml.AliasNode {
			item = item.Alias
		}
		if item.Kind != yaml.ScalarNode {
			return cty.NilVal, &config.UnsupportedStructureError{Path: path, Key: dotted}
		}
		v, err := l.translateScalar(path, dotted, item)
		if err != nil {
			return cty.NilVal, err
		}
		elems = append(elems, v)
	}
	return cty.TupleVal(elems), nil
}

// translateScalar maps a YAML scalar to its typed leaf. Quoted scalars are
// marked so the resolver can treat token-shaped text as a literal.
func (l *Loader) translateScalar(path, dotted string, n *yaml.Node) (cty.Value, error) {
	var v cty.Value
	switch n.Tag {
	case "!!null":
		v = cty.NullVal(cty.DynamicPseudoType)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, &config.ParseError{Path: path, Err: fmt.Errorf("key %q: %w", dotted, err)}
		}
		v = cty.BoolVal(b)
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return cty.NilVal, &config.ParseError{Path: path, Err: fmt.Errorf("key %q: %w", dotted, err)}
		}
		v = cty.NumberIntVal(i)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return cty.NilVal, &config.ParseError{Path: path, Err: fmt.Errorf("key %q: %w", dotted, err)}
		}
		v = cty.NumberFloatVal(f)
	default:
		v = cty.StringVal(n.Value)
	}

	if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		v = v.Mark(config.Quoted)
	}
	return v, nil
}
