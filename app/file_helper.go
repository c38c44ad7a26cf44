package app

import (
	"os"
	"path/filepath"

	"github.com/ludo-technologies/sanity/domain"
)

// FileHelper provides file operation utilities
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// ResolvePaths makes every source root absolute and checks that it exists.
// Duplicates are dropped, order is kept.
func (h *FileHelper) ResolvePaths(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, domain.NewInvalidInputError("cannot resolve "+path, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		resolved = append(resolved, abs)
	}

	return resolved, nil
}

// FileExists checks if a regular file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
