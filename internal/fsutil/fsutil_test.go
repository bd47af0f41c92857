package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"main.go":          "package main\n",
		"pkg/util.go":      "package pkg\n",
		"pkg/util_test.go": "package pkg\n",
		"README.md":        "readme\n",
		"data/weights.bin": "xx",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	dir := seedTree(t)
	files, err := FindFilesByExtension(dir, ".go")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(dir, "main.go"),
		filepath.Join(dir, "pkg", "util.go"),
		filepath.Join(dir, "pkg", "util_test.go"),
	}, files)
}

func TestFindFilesByExtension_EmptyExtensionRejected(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtension(t.TempDir(), "")
	require.Error(t, err)
}

func TestCopyTreeByExtension_PreservesLayout(t *testing.T) {
	t.Parallel()

	src := seedTree(t)
	dst := filepath.Join(t.TempDir(), "snapshot")
	require.NoError(t, CopyTreeByExtension(src, dst, ".go"))

	copied, err := FindFilesByExtension(dst, ".go")
	require.NoError(t, err)
	require.Len(t, copied, 3)
	require.FileExists(t, filepath.Join(dst, "pkg", "util.go"))
	require.NoFileExists(t, filepath.Join(dst, "README.md"))
	require.NoFileExists(t, filepath.Join(dst, "data", "weights.bin"))
}

func TestCopyTreeByExtension_RefusesExistingDestination(t *testing.T) {
	t.Parallel()

	src := seedTree(t)
	dst := t.TempDir()
	require.Error(t, CopyTreeByExtension(src, dst, ".go"))
}
