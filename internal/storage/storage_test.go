package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func implementations(t *testing.T) map[string]struct {
	fs   FS
	root string
} {
	return map[string]struct {
		fs   FS
		root string
	}{
		"os":  {fs: NewOSFS(), root: t.TempDir()},
		"mem": {fs: NewMemFS(), root: "/site"},
	}
}

func TestWriteAndRead(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(impl.root, "dist", "a", "index.html")
			if err := impl.fs.WriteFile(path, []byte("hello")); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			got, err := impl.fs.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if string(got) != "hello" {
				t.Errorf("Got %q, want %q", got, "hello")
			}
			if !impl.fs.Exists(path) {
				t.Error("Exists returned false for written file")
			}
			if impl.fs.Exists(filepath.Dir(path)) {
				t.Error("Exists returned true for a directory")
			}
		})
	}
}

func TestReadMissing(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := impl.fs.ReadFile(filepath.Join(impl.root, "missing.md"))
			if !IsNotFound(err) {
				t.Fatalf("Expected ErrNotFound, got %v", err)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				t.Error("ErrNotFound should match fs.ErrNotExist")
			}
		})
	}
}

func TestAppendAndCopy(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			src := filepath.Join(impl.root, "public", "base.css")
			bundle := filepath.Join(impl.root, "dist", "_assets", "page.css")
			if err := impl.fs.WriteFile(src, []byte("a{}\n")); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if err := impl.fs.CopyFile(bundle, src); err != nil {
				t.Fatalf("CopyFile failed: %v", err)
			}
			if err := impl.fs.AppendFile(bundle, []byte("b{}\n")); err != nil {
				t.Fatalf("AppendFile failed: %v", err)
			}
			got, err := impl.fs.ReadFile(bundle)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if string(got) != "a{}\nb{}\n" {
				t.Errorf("Got %q", got)
			}

			// The source is untouched by appends to the copy.
			orig, _ := impl.fs.ReadFile(src)
			if string(orig) != "a{}\n" {
				t.Errorf("Source changed to %q", orig)
			}

			if err := impl.fs.CopyFile(bundle, filepath.Join(impl.root, "nope.css")); !IsNotFound(err) {
				t.Errorf("Expected ErrNotFound copying a missing file, got %v", err)
			}
		})
	}
}

func TestDirFS(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			for _, p := range []string{"content/index.md", "content/posts/one.md", "other/x.md"} {
				if err := impl.fs.WriteFile(filepath.Join(impl.root, p), []byte("x")); err != nil {
					t.Fatalf("WriteFile failed: %v", err)
				}
			}
			var found []string
			err := fs.WalkDir(impl.fs.DirFS(filepath.Join(impl.root, "content")), ".", func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					found = append(found, p)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("WalkDir failed: %v", err)
			}
			if len(found) != 2 || found[0] != "index.md" || found[1] != "posts/one.md" {
				t.Errorf("Got %v", found)
			}
		})
	}
}

func TestMemFSCalls(t *testing.T) {
	m := NewMemFS()
	_ = m.WriteFile("/a", []byte("x"))
	_ = m.AppendFile("/a", []byte("y"))
	_, _ = m.ReadFile("/a")
	_ = m.CopyFile("/b", "/a")

	calls := m.Calls()
	if calls.Write != 1 || calls.Append != 1 || calls.Read != 1 || calls.Copy != 1 {
		t.Errorf("Unexpected calls: %+v", calls)
	}
	if files := m.Files(); len(files) != 2 || files[0] != "/a" || files[1] != "/b" {
		t.Errorf("Got files %v", files)
	}
}
