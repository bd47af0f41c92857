package config

import (
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var numberPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// ParseScalar converts a raw string to the most specific scalar value it
// can represent without losing information: integer or float first, then
// boolean (case-insensitive), falling back to the string itself.
func ParseScalar(s string) cty.Value {
	t := strings.TrimSpace(s)
	if numberPattern.MatchString(t) {
		if v, err := cty.ParseNumberVal(t); err == nil {
			return v
		}
	}
	switch strings.ToLower(t) {
	case "true":
		return cty.True
	case "false":
		return cty.False
	}
	return cty.StringVal(s)
}

// StringForm renders a leaf value in its canonical string form, as used
// when a template token is replaced inside a larger string. Sequences
// render in flow form with scalars written bare, e.g. "[10, 10]".
func StringForm(v cty.Value) string {
	v, _ = v.UnmarkDeep()
	switch {
	case v == cty.NilVal || v.IsNull():
		return "null"
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type() == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case v.Type() == cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case v.Type().IsTupleType():
		parts := make([]string, 0, v.LengthInt())
		for _, el := range v.AsValueSlice() {
			parts = append(parts, StringForm(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		// The loader only produces the types above.
		return v.GoString()
	}
}
