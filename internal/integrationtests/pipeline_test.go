package integrationtests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprun/internal/app"
	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/registry"
	"github.com/vk/exprun/internal/workspace"
)

// captureModule records what the entry point was invoked with.
type captureModule struct {
	name    string
	payload config.Payload
	cwd     string
}

func (m *captureModule) Register(r *registry.Registry) {
	r.Register("capture:run", func(ctx context.Context, name string, cfg config.Payload) error {
		m.name = name
		m.payload = cfg
		m.cwd, _ = os.Getwd()
		return nil
	})
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func seedCodeDir(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main\n"), 0o644))
	return src
}

// runOnce drives a full invocation through App.Run with the capture entry
// point. The process working directory is restored by the workspace, so
// these tests must not run in parallel.
func runOnce(t *testing.T, configPath string, overrides map[string]string) (*captureModule, error) {
	t.Helper()
	appConfig, err := app.NewConfig(app.Config{
		ConfigPath: configPath,
		Overrides:  overrides,
		LogFormat:  "text",
		LogLevel:   "warn",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	mod := &captureModule{}
	application, err := app.NewApp(&out, appConfig, mod)
	require.NoError(t, err)
	return mod, application.Run(context.Background(), appConfig)
}

func TestPipeline_MergeOverrideResolveAndRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	src := seedCodeDir(t, dir)
	t.Setenv("EXPRUN_IT_USER", "vk")

	write(t, dir, "base.yml", `
seed: 1
name: run-{seed}
user: $EXPRUN_IT_USER
data:
  folder: /mnt/data
`)
	child := write(t, dir, "child.yml", `
__default__: ./base.yml
__new_key_policy__: raise
__run__:
  __main__: capture:run
  __name__: "{name}"
  __output_dir__: `+out+`
  __code__: `+src+`
seed: 7
`)

	mod, err := runOnce(t, child, map[string]string{"seed": "42"})
	require.NoError(t, err)

	// The override reflows into every value templated on it.
	require.Equal(t, "run-42", mod.name)
	require.True(t, cty.NumberIntVal(42).RawEquals(mod.payload["seed"].(cty.Value)))
	require.True(t, cty.StringVal("run-42").RawEquals(mod.payload["name"].(cty.Value)))
	require.True(t, cty.StringVal("vk").RawEquals(mod.payload["user"].(cty.Value)))

	expDir := filepath.Join(out, "run-42", "exp.0")
	require.Equal(t, expDir, mod.cwd)
	require.FileExists(t, filepath.Join(expDir, "config.yml"))
	require.FileExists(t, filepath.Join(expDir, "frozen_modules.txt"))
	require.FileExists(t, filepath.Join(expDir, "outputs.log"))
	require.FileExists(t, filepath.Join(expDir, "src", "main.go"))

	// The raw snapshot keeps the override but not the resolution.
	raw, err := os.ReadFile(filepath.Join(expDir, "raw_config.yml"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "{seed}")
	require.Contains(t, string(raw), "seed: 42")
}

func TestPipeline_ResolvedSnapshotReproducesTheRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	src := seedCodeDir(t, dir)

	first := write(t, dir, "exp.yml", `
__run__:
  __main__: capture:run
  __name__: demo-{seed}
  __output_dir__: `+out+`
  __code__: `+src+`
seed: 3
`)

	mod1, err := runOnce(t, first, nil)
	require.NoError(t, err)
	require.Equal(t, "demo-3", mod1.name)

	snapshot := filepath.Join(out, "demo-3", "exp.0", "config.yml")
	mod2, err := runOnce(t, snapshot, nil)
	require.NoError(t, err)

	require.Equal(t, mod1.name, mod2.name)
	require.Equal(t, filepath.Join(out, "demo-3", "exp.1"), mod2.cwd)
	require.True(t, cty.NumberIntVal(3).RawEquals(mod2.payload["seed"].(cty.Value)))
}

func TestPipeline_DebugRunNestsUnderDebugAndSkipsSnapshot(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	src := seedCodeDir(t, dir)

	path := write(t, dir, "exp.yml", `
__run__:
  __main__: capture:run
  __name__: demo
  __output_dir__: `+out+`
  __code__: `+src+`
seed: 3
`)

	appConfig, err := app.NewConfig(app.Config{
		ConfigPath: path,
		Debug:      true,
		LogFormat:  "text",
		LogLevel:   "warn",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	mod := &captureModule{}
	application, err := app.NewApp(&buf, appConfig, mod)
	require.NoError(t, err)
	require.NoError(t, application.Run(context.Background(), appConfig))

	expDir := filepath.Join(out, "DEBUG", "demo", "exp.0")
	require.Equal(t, expDir, mod.cwd)
	require.NoFileExists(t, filepath.Join(expDir, "src", "main.go"))
}

func TestPipeline_EntryPointRunsWithOriginalCwdPublished(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	src := seedCodeDir(t, dir)

	workDir, err := os.Getwd()
	require.NoError(t, err)

	path := write(t, dir, "exp.yml", `
__run__:
  __main__: capture:run
  __name__: demo
  __output_dir__: `+out+`
  __code__: `+src+`
`)

	_, err = runOnce(t, path, nil)
	require.NoError(t, err)
	require.Equal(t, workDir, os.Getenv(workspace.OriginalWorkDirEnv))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, workDir, cwd)
}

func TestPipeline_RaisePolicyFailureAbortsBeforeAnyDirectoryIsMade(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "results")

	write(t, dir, "base.yml", "seed: 1\n")
	child := write(t, dir, "child.yml", `
__default__: ./base.yml
__new_key_policy__: raise
__run__:
  __main__: capture:run
  __name__: demo
  __output_dir__: `+out+`
extra: oops
`)

	_, err := runOnce(t, child, nil)
	var newKeyErr *config.NewKeyError
	require.ErrorAs(t, err, &newKeyErr)
	require.NoDirExists(t, out)
}
