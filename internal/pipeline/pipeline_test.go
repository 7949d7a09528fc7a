package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/buildstate"
	"git.home.luguber.info/inful/mdsite/internal/config"
	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/storage"
)

func newSite(t *testing.T, yaml string, files map[string]string) (*config.Config, *storage.MemFS) {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)

	fsys := storage.NewMemFS()
	for name, content := range files {
		require.NoError(t, fsys.WriteFile(name, []byte(content)))
	}
	return cfg, fsys
}

func read(t *testing.T, fsys *storage.MemFS, name string) string {
	t.Helper()
	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

func noEnv(string) string { return "" }

func TestBuildWritesDocument(t *testing.T) {
	cfg, fsys := newSite(t, "", map[string]string{
		"content/index.md": "# Hello, world!\n",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	res, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.Written)
	assert.NotEmpty(t, res.BuildID)

	out := read(t, fsys, "dist/index.html")
	assert.True(t, strings.HasPrefix(out, "<!doctype html>\n"))
	assert.Contains(t, out, "<title>Hello, world!</title>")
	assert.Contains(t, out, `<h1 id="hello-world">Hello, world!</h1>`)
}

func TestBuildRewritesLinks(t *testing.T) {
	cfg, fsys := newSite(t, "", map[string]string{
		"content/articles/a.md":     "# A\n\nSee [b](./b.md?x=1#top) and [c][c].\n\n[c]: ../index.md\n\nMore.\n",
		"content/articles/b.md":     "# B\n",
		"content/index.md":          "# Home\n",
		"content/articles/image.md": "![pic](./pic.webp)\n",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	_, err = o.Build(context.Background())
	require.NoError(t, err)

	a := read(t, fsys, "dist/articles/a/index.html")
	assert.Contains(t, a, `href="/articles/b?x=1#top"`)
	assert.Contains(t, a, `href="/"`)
	assert.Contains(t, a, "<p>More.</p>")
	assert.NotContains(t, a, "<p></p>")
	assert.Contains(t, read(t, fsys, "dist/articles/image/index.html"), `src="/articles/pic.webp"`)
}

func TestBuildDraftPolicy(t *testing.T) {
	site := `
host: https://example.org
name: Example
feed:
  pathname: /feed.xml
search: {}
`
	files := map[string]string{
		"content/articles/post.md":  "---\npublished: 2024-01-02\n---\n# Published post\n",
		"content/articles/draft.md": "---\ndraft: true\npublished: 2024-02-03\n---\n# Draft post\n",
	}

	tests := []struct {
		name        string
		env         func(string) string
		draftListed bool
	}{
		{"local build keeps drafts", noEnv, true},
		{"ci build hides drafts", func(k string) string {
			if k == "CI" {
				return "true"
			}
			return ""
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, fsys := newSite(t, site, files)
			o, err := New(cfg, WithFS(fsys), WithEnv(tt.env))
			require.NoError(t, err)

			res, err := o.Build(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, res.Written, "drafts are always written")

			sitemap := read(t, fsys, "dist/sitemap.txt")
			assert.Contains(t, sitemap, "https://example.org/articles/post\n")
			feed := read(t, fsys, "dist/feed.xml")
			assert.Contains(t, feed, "Published post")
			search := read(t, fsys, "dist/_search/index.json")
			assert.Contains(t, search, "/articles/post")

			if tt.draftListed {
				assert.Contains(t, sitemap, "https://example.org/articles/draft\n")
				assert.Contains(t, feed, "Draft post")
				assert.Contains(t, search, "/articles/draft")
			} else {
				assert.NotContains(t, sitemap, "/articles/draft")
				assert.NotContains(t, feed, "Draft post")
				assert.NotContains(t, search, "/articles/draft")
			}
		})
	}
}

func TestBuildWithoutHostSkipsFeedAndSitemap(t *testing.T) {
	cfg, fsys := newSite(t, "feed:\n  pathname: /feed.xml\n", map[string]string{
		"content/index.md": "# Home\n",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	res, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, fsys.Exists("dist/feed.xml"))
	assert.False(t, fsys.Exists("dist/sitemap.txt"))
	require.Len(t, res.Warnings, 2, "feed and sitemap each warn")
	for _, w := range res.Warnings {
		assert.True(t, derrors.HasCategory(w, derrors.CategoryConfig))
		assert.ErrorIs(t, w, derrors.ErrConfiguration)
	}
}

func TestBuildSitemapDisabledWithoutHostIsQuiet(t *testing.T) {
	cfg, fsys := newSite(t, "sitemap: false\n", map[string]string{
		"content/index.md": "# Home\n",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	res, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.False(t, fsys.Exists("dist/sitemap.txt"))
}

func TestBuildBundlesTypeAssets(t *testing.T) {
	cfg, fsys := newSite(t, `
defaults:
  page:
    stylesheets: [/base.css]
  article:
    stylesheets: [/base.css, /article.css]
types:
  - pattern: "articles/**"
    type: article
`, map[string]string{
		"public/base.css":       "body{}",
		"public/article.css":    "article{}",
		"content/index.md":      "# Home\n",
		"content/articles/a.md": "# A\n",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	_, err = o.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "body{}", read(t, fsys, "dist/_assets/page.css"))
	assert.Equal(t, "article{}", read(t, fsys, "dist/_assets/article.css"))

	home := read(t, fsys, "dist/index.html")
	assert.Contains(t, home, `href="/_assets/page.css"`)
	assert.NotContains(t, home, "article.css")

	article := read(t, fsys, "dist/articles/a/index.html")
	assert.Contains(t, article, `href="/_assets/page.css"`)
	assert.Contains(t, article, `href="/_assets/article.css"`)
	assert.Less(t, strings.Index(article, "page.css"), strings.Index(article, "article.css"))
}

func TestBuildCopiesFiles(t *testing.T) {
	cfg, fsys := newSite(t, "", map[string]string{
		"content/index.md":    "# Home\n",
		"public/robots.txt":   "User-agent: *\n",
		"content/img/dot.svg": `<?xml version="1.0"?><svg viewBox="0 0 1 1" width="1" height="1"><!-- c --><rect/></svg>`,
		"content/.hidden/x":   "secret",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	res, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Assets)
	assert.Equal(t, "User-agent: *\n", read(t, fsys, "dist/robots.txt"))

	svg := read(t, fsys, "dist/img/dot.svg")
	assert.NotContains(t, svg, "width=")
	assert.NotContains(t, svg, "<!--")
	assert.False(t, fsys.Exists("dist/.hidden/x"))
}

func TestBuildFormatsSources(t *testing.T) {
	cfg, fsys := newSite(t, "format: true\nsitemap: false\n", map[string]string{
		"content/index.md": "---\ntitle: Home\n---\n# Home\t\r\n\r\n\r\n\r\nText",
	})
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
	require.NoError(t, err)

	res, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Home\n---\n# Home\n\nText\n", read(t, fsys, "content/index.md"))
	require.Len(t, res.Warnings, 1)
	assert.True(t, derrors.HasCategory(res.Warnings[0], derrors.CategoryFormat))
}

func TestBuildSkipsUnchangedDocuments(t *testing.T) {
	cfg, fsys := newSite(t, "", map[string]string{
		"content/index.md": "# Home\n",
		"content/about.md": "# About\n",
	})
	state, err := buildstate.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv), WithState(state))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := o.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Written)

	require.NoError(t, fsys.WriteFile("content/about.md", []byte("# About us\n")))
	second, err := o.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Written)
	assert.Equal(t, 1, second.Skipped)
	assert.Contains(t, read(t, fsys, "dist/about/index.html"), "About us")

	builds, err := state.Builds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, second.BuildID, builds[0].ID)
	assert.Equal(t, buildstate.StatusSucceeded, builds[0].Status)
}

type unreadableFS struct{ *storage.MemFS }

func (unreadableFS) DirFS(string) fs.FS { return deniedFS{} }

type deniedFS struct{}

func (deniedFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func TestBuildDiscoveryFailureIsJournaled(t *testing.T) {
	cfg, fsys := newSite(t, "", map[string]string{"content/index.md": "# Home\n"})
	state, err := buildstate.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	o, err := New(cfg, WithFS(unreadableFS{fsys}), WithEnv(noEnv), WithState(state))
	require.NoError(t, err)

	ctx := context.Background()
	res, err := o.Build(ctx)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryFileSystem))
	require.NotNil(t, res)

	builds, err := state.Builds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, res.BuildID, builds[0].ID)
	assert.Equal(t, buildstate.StatusFailed, builds[0].Status)
}

func TestBuildFailurePolicy(t *testing.T) {
	files := map[string]string{
		"content/a.md": "# A\n",
		"content/b.md": "---\ntitle: [unterminated\n---\n# B\n",
	}

	t.Run("collects failures", func(t *testing.T) {
		cfg, fsys := newSite(t, "", files)
		o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
		require.NoError(t, err)

		res, err := o.Build(context.Background())
		require.Error(t, err)
		assert.True(t, derrors.HasCategory(err, derrors.CategoryParse))
		assert.Equal(t, 1, res.Written)
		assert.Equal(t, 1, res.Failed)
		assert.True(t, fsys.Exists("dist/a/index.html"))
	})

	t.Run("fail fast stops before rendering", func(t *testing.T) {
		cfg, fsys := newSite(t, "failFast: true\n", files)
		o, err := New(cfg, WithFS(fsys), WithEnv(noEnv))
		require.NoError(t, err)

		res, err := o.Build(context.Background())
		require.Error(t, err)
		assert.Equal(t, 0, res.Written)
		assert.False(t, fsys.Exists("dist/a/index.html"))
	})
}

type countStage struct{ seen []string }

func (*countStage) Name() string { return "count" }

func (s *countStage) Apply(tree *mdast.Root, doc *Document) (*mdast.Root, error) {
	s.seen = append(s.seen, doc.SourcePath)
	return nil, nil
}

func TestBuildFile(t *testing.T) {
	cfg, fsys := newSite(t, "", map[string]string{
		"content/index.md": "# Home\n",
		"content/logo.svg": `<svg viewBox="0 0 2 2" width="2"></svg>`,
	})
	stage := &countStage{}
	o, err := New(cfg, WithFS(fsys), WithEnv(noEnv), WithStages(stage))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fsys.WriteFile("content/index.md", []byte("# Changed\n")))
	res, err := o.BuildFile(ctx, filepath.Join("content", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, []string{"index.md"}, stage.seen)
	assert.Contains(t, read(t, fsys, "dist/index.html"), "<title>Changed</title>")

	res, err = o.BuildFile(ctx, filepath.Join("content", "logo.svg"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Assets)
	assert.NotContains(t, read(t, fsys, "dist/logo.svg"), "width")

	for _, p := range []string{"content/missing.md", "elsewhere/x.md", "content/.git/HEAD"} {
		res, err = o.BuildFile(ctx, p)
		require.NoError(t, err, p)
		assert.Zero(t, res.Documents, p)
	}
}

func TestDiscover(t *testing.T) {
	fsys := storage.NewMemFS()
	for _, name := range []string{
		"public/b.md", "content/a.md", "content/z/y.md", "content/.draft/x.md",
		"content/node_modules/pkg/readme.md", "content/img.png",
	} {
		require.NoError(t, fsys.WriteFile(name, nil))
	}

	sources, err := Discover(fsys, []string{"public", "content", "missing"}, Matcher{
		Include: []string{"**"},
		Exclude: []string{"**/node_modules/**"},
	})
	require.NoError(t, err)

	var got []string
	for _, s := range sources {
		got = append(got, s.Dir+":"+s.Rel)
	}
	assert.Equal(t, []string{"public:b.md", "content:a.md", "content:img.png", "content:z/y.md"}, got)
	assert.True(t, sources[0].IsDocument())
	assert.False(t, sources[2].IsDocument())
}

func TestDocumentStateNames(t *testing.T) {
	assert.Equal(t, "discovered", Discovered.String())
	assert.Equal(t, "metadata-resolved", MetadataResolved.String())
	assert.Equal(t, "written", Written.String())
	assert.Equal(t, "unknown", State(42).String())
}
