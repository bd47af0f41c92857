// Package pathres turns __default__ references into concrete file paths.
package pathres

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/exprun/internal/config"
)

// Resolve maps a reference string to the path of an existing file.
//
// An absolute reference is used unchanged. A reference starting with "./"
// or "../" is resolved against the directory of the referring document.
// Any other reference is resolved against workDir, the process's original
// working directory.
func Resolve(ref, fromDoc, workDir string) (string, error) {
	var resolved string
	switch {
	case filepath.IsAbs(ref):
		resolved = filepath.Clean(ref)
	case strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../"):
		resolved = filepath.Join(filepath.Dir(fromDoc), ref)
	default:
		resolved = filepath.Join(workDir, ref)
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", &config.PathResolutionError{Ref: ref, From: fromDoc, Resolved: resolved}
	}
	return resolved, nil
}
