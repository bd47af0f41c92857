package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprun/internal/config"
)

func TestApplyOverrides_CoercesToExistingLeafType(t *testing.T) {
	t.Parallel()

	payload := config.Payload{
		"seed": cty.NumberIntVal(1),
		"lr":   cty.NumberFloatVal(0.1),
		"gpu":  cty.True,
		"name": cty.StringVal("base"),
		"model": config.Payload{
			"depth": cty.NumberIntVal(3),
		},
	}
	out, err := ApplyOverrides(payload, map[string]string{
		"seed":        "42",
		"lr":          "0.01",
		"gpu":         "false",
		"name":        "tuned",
		"model.depth": "5",
	})
	require.NoError(t, err)
	require.True(t, cty.NumberIntVal(42).RawEquals(leaf(t, out, "seed")))
	require.True(t, cty.NumberFloatVal(0.01).RawEquals(leaf(t, out, "lr")))
	require.True(t, cty.False.RawEquals(leaf(t, out, "gpu")))
	require.True(t, cty.StringVal("tuned").RawEquals(leaf(t, out, "name")))
	require.True(t, cty.NumberIntVal(5).RawEquals(leaf(t, out, "model", "depth")))
}

func TestApplyOverrides_SequenceSplitsOnComma(t *testing.T) {
	t.Parallel()

	payload := config.Payload{
		"dims": cty.TupleVal([]cty.Value{cty.NumberIntVal(8), cty.NumberIntVal(8)}),
	}
	out, err := ApplyOverrides(payload, map[string]string{"dims": "10,20"})
	require.NoError(t, err)
	want := cty.TupleVal([]cty.Value{cty.NumberIntVal(10), cty.NumberIntVal(20)})
	require.True(t, want.RawEquals(leaf(t, out, "dims")))
}

func TestApplyOverrides_SequenceLengthMayChange(t *testing.T) {
	t.Parallel()

	payload := config.Payload{
		"dims": cty.TupleVal([]cty.Value{cty.NumberIntVal(8)}),
	}
	out, err := ApplyOverrides(payload, map[string]string{"dims": "1,2,3"})
	require.NoError(t, err)
	want := cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)})
	require.True(t, want.RawEquals(leaf(t, out, "dims")))
}

func TestApplyOverrides_NullLeafTakesParsedType(t *testing.T) {
	t.Parallel()

	payload := config.Payload{"note": cty.NullVal(cty.DynamicPseudoType)}
	out, err := ApplyOverrides(payload, map[string]string{"note": "123"})
	require.NoError(t, err)
	require.True(t, cty.NumberIntVal(123).RawEquals(leaf(t, out, "note")))
}

func TestApplyOverrides_QuotedLeafIsReplacedByPlainValue(t *testing.T) {
	t.Parallel()

	// Override text comes from the command line, so the replacement
	// carries no quoting mark even when the original leaf did.
	payload := config.Payload{"fmt": cty.StringVal("{w}d").Mark(config.Quoted)}
	out, err := ApplyOverrides(payload, map[string]string{"fmt": "plain"})
	require.NoError(t, err)
	require.True(t, cty.StringVal("plain").RawEquals(leaf(t, out, "fmt")))
}

func TestApplyOverrides_UnknownKeyIsNewKeyError(t *testing.T) {
	t.Parallel()

	_, err := ApplyOverrides(config.Payload{"a": cty.NumberIntVal(1)}, map[string]string{"b": "2"})
	var newKeyErr *config.NewKeyError
	require.ErrorAs(t, err, &newKeyErr)
	require.Equal(t, "b", newKeyErr.Key)
}

func TestApplyOverrides_UncoercibleValueFails(t *testing.T) {
	t.Parallel()

	payload := config.Payload{"seed": cty.NumberIntVal(1), "gpu": cty.True}

	_, err := ApplyOverrides(payload, map[string]string{"seed": "abc"})
	require.Error(t, err)

	_, err = ApplyOverrides(payload, map[string]string{"gpu": "maybe"})
	require.Error(t, err)
}

func TestApplyOverrides_EmptyOverridesReturnPayloadUnchanged(t *testing.T) {
	t.Parallel()

	payload := config.Payload{"a": cty.NumberIntVal(1)}
	out, err := ApplyOverrides(payload, nil)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}
