package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrRouteRootMissing is returned when the routes directory does not exist.
// Nothing can be generated without an API surface, so callers treat it as fatal.
var ErrRouteRootMissing = errors.New("route root directory does not exist")

// DefaultRouteExtensions lists the extensions accepted for route.<ext> files.
var DefaultRouteExtensions = []string{"js", "jsx", "ts", "tsx", "mjs"}

// WalkFiles returns every regular file below root, depth first, in lexical
// traversal order. No filtering happens here.
func WalkFiles(root string) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRouteRootMissing, root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRouteRootMissing, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// IsRouteFile reports whether path names a route.<ext> file for one of exts.
// A nil exts falls back to DefaultRouteExtensions.
func IsRouteFile(path string, exts []string) bool {
	if len(exts) == 0 {
		exts = DefaultRouteExtensions
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "route.") {
		return false
	}
	ext := strings.TrimPrefix(base, "route.")
	for _, e := range exts {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}
