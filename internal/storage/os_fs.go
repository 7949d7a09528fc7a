package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// OSFS implements FS on the local file system.
type OSFS struct {
	// appends to a bundle must not interleave
	mu sync.Mutex
}

// NewOSFS returns the local file system.
func NewOSFS() *OSFS {
	return &OSFS{}
}

func (o *OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- paths come from content discovery and config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound{Path: path}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (o *OSFS) WriteFile(path string, data []byte) error {
	if err := o.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	// #nosec G306 -- site output is meant to be world readable
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (o *OSFS) AppendFile(path string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	// #nosec G302 G304 -- output artifact under the output directory
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Close()
}

func (o *OSFS) CopyFile(dst, src string) error {
	// #nosec G304 -- src is a discovered asset
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound{Path: src}
		}
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if err := o.MkdirAll(filepath.Dir(dst)); err != nil {
		return err
	}
	// #nosec G304 -- dst is under the output directory
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func (o *OSFS) MkdirAll(path string) error {
	// #nosec G301 -- site output directories are world readable
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

func (o *OSFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (o *OSFS) DirFS(dir string) fs.FS {
	return os.DirFS(dir)
}
