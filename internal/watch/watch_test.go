package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/pipeline"
)

type fakeBuilder struct {
	mu     sync.Mutex
	calls  []string
	active int
	maxPar int
}

func (b *fakeBuilder) record(call string) {
	b.mu.Lock()
	b.active++
	b.maxPar = max(b.maxPar, b.active)
	b.calls = append(b.calls, call)
	b.mu.Unlock()

	time.Sleep(time.Millisecond)

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
}

func (b *fakeBuilder) Build(context.Context) (*pipeline.Result, error) {
	b.record("build")
	return &pipeline.Result{}, nil
}

func (b *fakeBuilder) BuildFile(_ context.Context, path string) (*pipeline.Result, error) {
	b.record(filepath.ToSlash(path))
	return &pipeline.Result{Documents: 1}, nil
}

func (b *fakeBuilder) snapshot() ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...), b.maxPar
}

func newWatcher(t *testing.T, cfg *config.Config, b Builder) (*Watcher, chan Event) {
	t.Helper()
	w, err := New(cfg, b)
	require.NoError(t, err)
	finished := make(chan Event, QueueSize)
	w.done = func(ev Event, _ *pipeline.Result, _ error) { finished <- ev }
	return w, finished
}

func waitFor(t *testing.T, finished <-chan Event, n int) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case ev := <-finished:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("got %d of %d events", len(got), n)
		}
	}
	return got
}

func TestDispatchRunsOneTaskPerEvent(t *testing.T) {
	b := &fakeBuilder{}
	w, finished := newWatcher(t, &config.Config{ContentDir: "content", OutputDir: "dist"}, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := []Event{
		{Op: Changed, Path: "content/a.md"},
		{Op: Changed, Path: "content/a.md"},
		{Op: Rebuild},
		{Op: Removed, Path: "content/b.md"},
		{Op: Changed, Path: "content/a.md"},
	}
	for _, ev := range events {
		require.NoError(t, w.Enqueue(ctx, ev))
	}
	go w.dispatch(ctx)

	got := waitFor(t, finished, len(events))
	assert.Equal(t, events, got)

	calls, maxPar := b.snapshot()
	assert.Equal(t, []string{"content/a.md", "content/a.md", "build", "content/b.md", "content/a.md"}, calls)
	assert.Equal(t, 1, maxPar, "tasks never overlap")
}

func TestEnqueueHonoursCancellation(t *testing.T) {
	w, _ := newWatcher(t, &config.Config{ContentDir: "content", OutputDir: "dist"}, &fakeBuilder{})
	ctx, cancel := context.WithCancel(context.Background())
	for range QueueSize {
		require.NoError(t, w.Enqueue(ctx, Event{Op: Rebuild}))
	}
	cancel()
	assert.ErrorIs(t, w.Enqueue(ctx, Event{Op: Rebuild}), context.Canceled)
}

func TestIgnored(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		ContentDir: filepath.Join(root, "content"),
		PublicDir:  filepath.Join(root, "public"),
		OutputDir:  filepath.Join(root, "dist"),
		Watch:      config.WatchConfig{Ignore: []string{"drafts/**", "*.bak"}},
	}
	w, _ := newWatcher(t, cfg, &fakeBuilder{})

	tests := []struct {
		path string
		want bool
	}{
		{"content/index.md", false},
		{"content/articles/post.md", false},
		{"public/logo.svg", false},
		{"dist/index.html", true},
		{"content/.git/HEAD", true},
		{"content/.hidden.md", true},
		{"content/post.md~", true},
		{"content/.post.md.swp", true},
		{"content/#post.md#", true},
		{"content/drafts/x.md", true},
		{"content/notes.bak", true},
		{"public/drafts/x.md", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Ignored(filepath.Join(root, filepath.FromSlash(tt.path))))
		})
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(&config.Config{ContentDir: "content", OutputDir: "dist", Watch: config.WatchConfig{Schedule: "soon"}}, &fakeBuilder{})
	require.Error(t, err)
}

func TestRunQueuesFileChanges(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "sub"), 0o755))

	b := &fakeBuilder{}
	w, finished := newWatcher(t, &config.Config{ContentDir: content, OutputDir: filepath.Join(root, "dist")}, b)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	target := filepath.Join(content, "sub", "page.md")
	require.Eventually(t, func() bool {
		if err := os.WriteFile(target, []byte("# Page\n"), 0o600); err != nil {
			return false
		}
		select {
		case ev := <-finished:
			return ev.Path == target && ev.Op == Changed
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	calls, _ := b.snapshot()
	assert.Contains(t, calls, filepath.ToSlash(target))
}
