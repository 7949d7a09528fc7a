// Package gitinfo derives document modification dates from git history.
package gitinfo

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Dates looks up the last commit time of files in one repository.
type Dates struct {
	repo *git.Repository
	root string

	// go-git repositories are not safe for concurrent use
	mu    sync.Mutex
	cache map[string]time.Time
}

// Open opens the repository containing dir.
func Open(dir string) (*Dates, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Dates{repo: repo, root: root, cache: make(map[string]time.Time)}, nil
}

var errStop = errors.New("stop")

// Modified returns the committer time of the last commit touching path.
// The boolean is false for files without history.
func (d *Dates) Modified(path string) (time.Time, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false, err
	}
	rel, err := filepath.Rel(d.root, abs)
	if err != nil {
		return time.Time{}, false, err
	}
	rel = filepath.ToSlash(rel)

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.cache[rel]; ok {
		return t, !t.IsZero(), nil
	}

	iter, err := d.repo.Log(&git.LogOptions{FileName: &rel, Order: git.LogOrderCommitterTime})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			d.cache[rel] = time.Time{}
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("git log %s: %w", rel, err)
	}
	defer iter.Close()

	var when time.Time
	err = iter.ForEach(func(c *object.Commit) error {
		when = c.Committer.When
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) && !errors.Is(err, io.EOF) {
		return time.Time{}, false, fmt.Errorf("git log %s: %w", rel, err)
	}

	d.cache[rel] = when
	return when, !when.IsZero(), nil
}
