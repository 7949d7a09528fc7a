package hast

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, n))
	return buf.String()
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, world!", "hello-world"},
		{"Title", "title"},
		{"  Déjà vu  ", "deja-vu"},
		{"snake_case and-dash", "snake_case-and-dash"},
		{"C++ & Go", "c--go"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSlugger(t *testing.T) {
	g := NewSlugger()
	g.Reserve("intro-1")

	assert.Equal(t, "intro", g.Slug("Intro"))
	assert.Equal(t, "intro-2", g.Slug("Intro"))
	assert.Equal(t, "intro-3", g.Slug("intro"))
	assert.Equal(t, "other", g.Slug("Other"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "unicode", Fold("Ünïcode"))
	assert.Equal(t, "strasse", Fold("STRASSE"))
}

func TestBuildAndQuery(t *testing.T) {
	p := El("p", Attrs("class", "lead", "id", ""),
		Text("a < b "),
		El("strong", nil, Text("bold")),
		Raw("<br>"),
	)

	assert.Equal(t, `<p class="lead">a &lt; b <strong>bold</strong><br></p>`, render(t, p))
	assert.Equal(t, "a < b bold", TextContent(p))
	assert.False(t, HasAttr(p, "id"))

	SetAttr(p, "class", "intro")
	SetAttr(p, "id", "x")
	assert.Equal(t, "intro", GetAttr(p, "class"))
	assert.Equal(t, "x", GetAttr(p, "id"))

	strong := Find(p, Tag("strong"))
	require.NotNil(t, strong)
	assert.Len(t, FindAll(p, func(n *html.Node) bool { return n.Type == html.TextNode }), 2)
	assert.Len(t, Children(p), 3)

	// Appending moves a node to its new parent.
	div := El("div", nil)
	Append(div, strong)
	assert.Len(t, Children(p), 2)
	assert.Same(t, div, strong.Parent)
}

func TestHeadingRank(t *testing.T) {
	assert.Equal(t, 2, HeadingRank(El("h2", nil)))
	assert.Equal(t, 0, HeadingRank(El("hr", nil)))
	assert.Equal(t, 0, HeadingRank(El("header", nil)))
	assert.True(t, IsHeading(El("h6", nil)))
	assert.False(t, IsHeading(Text("h1")))
}

func TestClone(t *testing.T) {
	orig := El("figure", Attrs("class", "x"), El("p", nil, Text("hi")))
	parent := El("div", nil, orig)

	cp := Clone(orig)
	assert.Nil(t, cp.Parent)
	assert.Equal(t, render(t, orig), render(t, cp))

	SetAttr(cp, "class", "y")
	assert.Equal(t, "x", GetAttr(orig, "class"))
	assert.Same(t, parent, orig.Parent)
}
