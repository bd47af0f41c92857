package merge

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/exprun/internal/config"
)

// ApplyOverrides merges command-line overrides (dotted key path to raw
// string value) into an already folded payload. Overrides run after the
// merge and before variable resolution, so overriding a key that feeds a
// template reflows into every dependent value. A key the configuration
// does not define is a NewKeyError: overrides may change values, never
// shape.
func ApplyOverrides(payload config.Payload, overrides map[string]string) (config.Payload, error) {
	if len(overrides) == 0 {
		return payload, nil
	}
	flat := config.Flatten(payload)
	for _, key := range config.SortedKeys(overrides) {
		existing, ok := flat[key]
		if !ok {
			return nil, &config.NewKeyError{Key: key}
		}
		value, err := convertAs(existing, overrides[key])
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
		flat[key] = value
	}
	return config.Unflatten(flat)
}

// convertAs coerces a raw override string to the type of the value it
// replaces. Sequences split on "," with each element coerced to the
// corresponding (or first) existing element's type. Override text comes
// from the command line, so the result is never a quoted literal.
func convertAs(existing cty.Value, raw string) (cty.Value, error) {
	existing, _ = existing.UnmarkDeep()
	switch {
	case existing.Type().IsTupleType():
		return convertSequence(existing, raw)
	case existing.IsNull():
		return config.ParseScalar(raw), nil
	case existing.Type() == cty.Bool:
		switch strings.ToLower(raw) {
		case "true", "1":
			return cty.True, nil
		case "false", "0":
			return cty.False, nil
		default:
			return cty.NilVal, fmt.Errorf("cannot convert %q to bool", raw)
		}
	case existing.Type() == cty.Number:
		v, err := convert.Convert(cty.StringVal(raw), cty.Number)
		if err != nil {
			return cty.NilVal, fmt.Errorf("cannot convert %q to number: %w", raw, err)
		}
		return v, nil
	default:
		return cty.StringVal(raw), nil
	}
}

func convertSequence(existing cty.Value, raw string) (cty.Value, error) {
	parts := strings.Split(raw, ",")
	current := existing.AsValueSlice()
	elems := make([]cty.Value, 0, len(parts))
	for i, part := range parts {
		var target cty.Value
		switch {
		case len(current) == len(parts):
			target = current[i]
		case len(current) > 0:
			target = current[0]
		default:
			elems = append(elems, config.ParseScalar(part))
			continue
		}
		v, err := convertAs(target, part)
		if err != nil {
			return cty.NilVal, err
		}
		elems = append(elems, v)
	}
	if len(elems) == 0 {
		return cty.EmptyTupleVal, nil
	}
	return cty.TupleVal(elems), nil
}
