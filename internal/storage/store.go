// Package storage provides the file-system primitives used to read site
// sources and write build output.
package storage

import (
	"errors"
	"io/fs"
)

// FS is the file-system surface used by the build. Paths are native paths.
// Writes create missing parent directories.
type FS interface {
	// ReadFile returns the content of path. A missing file yields ErrNotFound.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the content of path.
	WriteFile(path string, data []byte) error

	// AppendFile appends data to path, creating it when missing.
	AppendFile(path string, data []byte) error

	// CopyFile copies src to dst, replacing dst.
	CopyFile(dst, src string) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error

	// Exists reports whether a regular file exists at path.
	Exists(path string) bool

	// DirFS returns a read-only view rooted at dir, for directory walks.
	DirFS(dir string) fs.FS
}

// ErrNotFound is returned when a file doesn't exist.
type ErrNotFound struct {
	Path string
}

func (e ErrNotFound) Error() string {
	return "file not found: " + e.Path
}

// Is lets ErrNotFound match fs.ErrNotExist.
func (e ErrNotFound) Is(target error) bool {
	return target == fs.ErrNotExist
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
