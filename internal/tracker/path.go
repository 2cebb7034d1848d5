package tracker

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// PackPath normalizes a pack-relative path for use with an fs.FS. Windows
// separators and a leading "./" are accepted; absolute paths and paths that
// climb out of the pack root are rejected.
func PackPath(p string) (string, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if clean == "" || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean = path.Clean(clean)
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// ReadFile reads a pack-relative file.
func ReadFile(fsys fs.FS, p string) (string, []byte, error) {
	clean, err := PackPath(p)
	if err != nil {
		return "", nil, err
	}
	data, err := fs.ReadFile(fsys, clean)
	if err != nil {
		return clean, nil, err
	}
	return clean, data, nil
}
