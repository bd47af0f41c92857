package yamlcfg

import (
	"math/big"
	"os"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/exprun/internal/config"
)

// Encode serializes a payload tree, plus an optional __run__ section, back
// to YAML. Snapshots written this way parse back through Load into an
// equivalent document, which is what makes re-running from a previously
// written (resolved or raw) snapshot possible.
func Encode(payload config.Payload, run *config.RunSection) ([]byte, error) {
	doc := payloadToGo(payload)
	if run != nil {
		section := map[string]any{}
		if run.Main != "" {
			section[config.KeyMain] = run.Main
		}
		if run.Name != "" {
			section[config.KeyName] = run.Name
		}
		if run.OutputDir != "" {
			section[config.KeyOutputDir] = run.OutputDir
		}
		if run.Code != "" {
			section[config.KeyCode] = run.Code
		}
		doc[config.KeyRun] = section
	}
	return yaml.Marshal(doc)
}

// Save writes an Encode snapshot to path.
func Save(path string, payload config.Payload, run *config.RunSection) error {
	data, err := Encode(payload, run)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func payloadToGo(p config.Payload) map[string]any {
	out := make(map[string]any, len(p))
	for key, value := range p {
		if sub, ok := value.(config.Payload); ok {
			out[key] = payloadToGo(sub)
			continue
		}
		out[key] = leafToGo(value.(cty.Value))
	}
	return out
}

func leafToGo(v cty.Value) any {
	v, _ = v.UnmarkDeep()
	switch {
	case v.IsNull():
		return nil
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i
		}
		f, _ := bf.Float64()
		return f
	case v.Type().IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for _, el := range v.AsValueSlice() {
			out = append(out, leafToGo(el))
		}
		return out
	default:
		return config.StringForm(v)
	}
}
