package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/paths"
	"git.home.luguber.info/inful/mdsite/internal/storage"
)

// Source is a discovered file.
type Source struct {
	// Dir is the content directory the file was found in.
	Dir string
	// Rel is the slash-separated path below Dir.
	Rel string
}

// IsDocument reports whether the source is Markdown.
func (s Source) IsDocument() bool {
	return paths.IsMarkup(s.Rel)
}

// Matcher applies include and exclude globs to slash-separated relative
// paths. Hidden files and directories never match.
type Matcher struct {
	Include []string
	Exclude []string
}

// Match reports whether rel is selected.
func (m Matcher) Match(rel string) bool {
	if Hidden(rel) {
		return false
	}
	for _, pattern := range m.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(m.Include) == 0 {
		return true
	}
	for _, pattern := range m.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Hidden reports whether any segment of rel starts with a dot.
func Hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

// Discover lists the files selected by m in dirs, in directory order and
// then lexical order. Missing directories are skipped.
func Discover(fsys storage.FS, dirs []string, m Matcher) ([]Source, error) {
	var out []Source
	for _, dir := range dirs {
		root := fsys.DirFS(dir)
		if _, err := fs.Stat(root, "."); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("Content directory not found", logfields.Path(dir))
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", dir, err)
		}

		err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == "." {
				return nil
			}
			if d.IsDir() {
				if Hidden(p) || excludedDir(m, p) {
					return fs.SkipDir
				}
				return nil
			}
			if m.Match(p) {
				out = append(out, Source{Dir: dir, Rel: path.Clean(p)})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	return out, nil
}

// excludedDir prunes directories whose whole subtree is excluded.
func excludedDir(m Matcher, dir string) bool {
	for _, pattern := range m.Exclude {
		if ok, _ := doublestar.Match(pattern, dir+"/"); ok {
			return true
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), dir); ok && strings.HasSuffix(pattern, "/**") {
			return true
		}
	}
	return false
}
