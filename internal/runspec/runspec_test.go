package runspec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/resolve"
)

func TestExtract_ResolvesFieldsAgainstPayload(t *testing.T) {
	t.Parallel()

	payload := config.Payload{
		"seed": cty.NumberIntVal(42),
		"data": config.Payload{"name": cty.StringVal("mnist")},
	}
	run := config.RunSection{
		Main:      "train:run",
		Name:      "{data.name}-{seed}",
		OutputDir: "/results",
		Code:      "./src",
	}

	desc, err := Extract(context.Background(), payload, run, resolve.New(nil))
	require.NoError(t, err)
	require.Equal(t, "train:run", desc.Main)
	require.Equal(t, "mnist-42", desc.Name)
	require.Equal(t, "/results", desc.OutputDir)
	require.Equal(t, "./src", desc.Code)
	require.Equal(t, payload, desc.Payload)
}

func TestExtract_CodeIsOptional(t *testing.T) {
	t.Parallel()

	run := config.RunSection{Main: "m:f", Name: "n", OutputDir: "/o"}
	desc, err := Extract(context.Background(), config.Payload{}, run, resolve.New(nil))
	require.NoError(t, err)
	require.Empty(t, desc.Code)
}

func TestExtract_MissingMandatoryFieldFails(t *testing.T) {
	t.Parallel()

	cases := []struct {
		field string
		run   config.RunSection
	}{
		{config.KeyMain, config.RunSection{Name: "n", OutputDir: "/o"}},
		{config.KeyName, config.RunSection{Main: "m:f", OutputDir: "/o"}},
		{config.KeyOutputDir, config.RunSection{Main: "m:f", Name: "n"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.field, func(t *testing.T) {
			t.Parallel()
			_, err := Extract(context.Background(), config.Payload{}, tc.run, resolve.New(nil))
			var incompleteErr *config.IncompleteRunSpecError
			require.ErrorAs(t, err, &incompleteErr)
			require.Equal(t, tc.field, incompleteErr.Field)
		})
	}
}

func TestExtract_EnvReferencesInRunFields(t *testing.T) {
	t.Parallel()

	env := resolve.Environment{"HOME": "/home/vk"}
	run := config.RunSection{Main: "m:f", Name: "n", OutputDir: "$HOME/results"}
	desc, err := Extract(context.Background(), config.Payload{}, run, resolve.New(env))
	require.NoError(t, err)
	require.Equal(t, "/home/vk/results", desc.OutputDir)
}

func TestExtract_DanglingReferenceFails(t *testing.T) {
	t.Parallel()

	run := config.RunSection{Main: "m:f", Name: "{missing}", OutputDir: "/o"}
	_, err := Extract(context.Background(), config.Payload{}, run, resolve.New(nil))
	var unresolvedErr *config.UnresolvedVariableError
	require.ErrorAs(t, err, &unresolvedErr)
	require.Equal(t, config.KeyName, unresolvedErr.Key)
}
