// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFilesByExtension walks every root and returns the files whose names
// end with extension. A root may also be a single file, which is returned
// as long as it has the extension. Within a root, files come in lexical
// order; roots are visited in the order given and a file reached twice is
// listed once.
func FindFilesByExtension(extension string, roots ...string) ([]string, error) {
	if extension == "" {
		return nil, errors.New("extension must not be empty")
	}

	var files []string
	seen := make(map[string]struct{})
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
				return nil
			}
			clean := filepath.Clean(path)
			if _, dup := seen[clean]; dup {
				return nil
			}
			seen[clean] = struct{}{}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
