package external

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/j-veylop/claude-tracker/internal/fsutil"
)

// File is Claude Code's credentials file.
type File struct {
	path string
}

// NewFile returns the file source at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the credentials file path.
func (f *File) Path() string {
	return f.path
}

// Read implements Source.
func (f *File) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrNotFound
	}
	return data, nil
}

// Write implements Source.
func (f *File) Write(data []byte) error {
	if err := fsutil.WriteFileAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	return nil
}

// Location implements Source.
func (f *File) Location() string {
	return f.path
}
