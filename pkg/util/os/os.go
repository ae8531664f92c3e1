// Package os supplies the one filesystem helper bootvol's scan command
// still needs after the carving-output tree was retired: expanding a
// directory argument into the regular files inside it. EnsureDir,
// IsDirEmpty and CopyFile (carved-output bookkeeping) had no remaining
// caller and were dropped rather than kept unreachable.
package os

import (
	"fmt"
	"os"
	"path/filepath"
)

// ListFiles takes a path and returns a slice of file paths.
// If the path is a regular file, it returns []string{path}.
// If it's a directory, it returns all regular files in that directory (non-recursive).
func ListFiles(path string) ([]string, error) {
	finfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %s: %w", path, err)
	}

	if finfo.Mode().IsRegular() {
		return []string{path}, nil
	}

	if !finfo.IsDir() {
		return nil, fmt.Errorf("path %s is neither a regular file nor a directory", path)
	}

	files := []string{}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		filePath := filepath.Join(path, entry.Name())
		files = append(files, filePath)
	}
	return files, nil
}
