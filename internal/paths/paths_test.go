package paths

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
)

func TestResolvePathname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"README.md", "/"},
		{"index.md", "/"},
		{"test.md", "/test"},
		{"articles/post.md", "/articles/post"},
		{"articles/post/index.md", "/articles/post"},
		{"articles/post/README.md", "/articles/post"},
		{"Docs/ReadMe.MD", "/Docs"},
		{"notes.markdown", "/notes"},
		{"xindex.md", "/xindex"},
		{"./another.md", "./another"},
		{"../another/index.md", "../another"},
		{"/already/resolved", "/already/resolved"},
		{"/", "/"},
		{"image.webp", "/image.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ResolvePathname(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ResolvePathname(got), "re-resolving must be stable")
		})
	}
}

func TestResolveTargetPathname(t *testing.T) {
	tests := []struct {
		from string
		href string
		want string
	}{
		{"README.md", "./another.md", "/another"},
		{"index.md", "./image.webp", "/image.webp"},
		{"articles/article.md", "./another.md", "/articles/another"},
		{"articles/article.md", "./another/index.md", "/articles/another"},
		{"articles/article.md", "./another/deep/dir/index.md", "/articles/another/deep/dir"},
		{"articles/article/index.md", "../another.md", "/articles/another"},
		{"articles/article/index.md", "../another/index.md", "/articles/another"},
		{"articles/article/index.md", "../../articles/another/index.md", "/articles/another"},
		{"articles/article/index.md", "../another.md#hash", "/articles/another#hash"},
		{"articles/article.md", "./another.md?q=r", "/articles/another?q=r"},
		{"articles/article.md", "./pic.png", "/articles/pic.png"},
		{"articles/article.md", "another.md", "/another"},
		{"articles/article.md", "https://example.com/a.md", "https://example.com/a.md"},
		{"articles/article.md", "mailto:me@example.com", "mailto:me@example.com"},
		{"articles/article.md", "/absolute/path", "/absolute/path"},
		{"articles/article.md", "#section", "#section"},
		{"articles/article.md", "//cdn.example.com/x.js", "//cdn.example.com/x.js"},
	}

	for _, tt := range tests {
		t.Run(tt.from+" -> "+tt.href, func(t *testing.T) {
			got, err := ResolveTargetPathname(tt.from, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ResolveTargetPathname(tt.from, tt.href)
			require.NoError(t, err)
			assert.Equal(t, got, again)

			// A resolved target is absolute and passes through unchanged.
			passthrough, err := ResolveTargetPathname(tt.from, got)
			require.NoError(t, err)
			assert.Equal(t, got, passthrough)
		})
	}
}

func TestResolveTargetPathname_Malformed(t *testing.T) {
	href := "./bad%zz.md"
	got, err := ResolveTargetPathname("a.md", href)
	require.Error(t, err)
	assert.Equal(t, href, got)
	assert.True(t, stderrors.Is(err, errors.ErrMalformedLink))
	assert.True(t, errors.IsWarning(err))
}

func TestShouldRewrite(t *testing.T) {
	tests := map[string]bool{
		"./a.md":             true,
		"a.md":               true,
		"../dir/index.md#x":  true,
		"./image.png":        true,
		"../assets/file.pdf": true,
		"image.png":          false,
		"/abs.md":            false,
		"https://x.org/a.md": false,
		"mailto:a@b.c":       false,
		"#top":               false,
		"":                   false,
	}
	for href, want := range tests {
		assert.Equal(t, want, ShouldRewrite(href), href)
	}
}

func TestIsIndex(t *testing.T) {
	assert.True(t, IsIndex("index.md"))
	assert.True(t, IsIndex("a/README.md"))
	assert.True(t, IsIndex("a/Index.Markdown"))
	assert.False(t, IsIndex("a/myindex.md"))
	assert.False(t, IsIndex("a/index.html"))
}
