// Package fsutil provides the file system helpers used when snapshotting
// experiment code.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFilesByExtension recursively searches rootPath for files whose name
// ends with extension and returns their full paths.
func FindFilesByExtension(rootPath, extension string) ([]string, error) {
	if extension == "" {
		return nil, fmt.Errorf("fsutil: extension must not be empty")
	}
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CopyTreeByExtension copies every file under src ending with extension
// into dst, preserving the directory layout. dst must not already exist;
// copying into an existing location is refused.
func CopyTreeByExtension(src, dst, extension string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("fsutil: destination %s already exists", dst)
	}

	files, err := FindFilesByExtension(src, extension)
	if err != nil {
		return err
	}
	for _, file := range files {
		rel, err := filepath.Rel(src, file)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
