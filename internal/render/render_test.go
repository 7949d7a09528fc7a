package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/directives"
	"git.home.luguber.info/inful/mdsite/internal/frontmatter"
	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

type page struct {
	tree *mdast.Root
	meta *meta.Metadata
}

func build(t *testing.T, src, typ string, site meta.Site, defaults meta.Defaults) page {
	t.Helper()
	matter, err := frontmatter.Parse([]byte(src))
	require.NoError(t, err)
	tree, err := markdown.New().Parse(matter.Body)
	require.NoError(t, err)
	if site.Language == "" {
		site.Language = "en"
	}
	m, warnings := meta.Build(meta.Input{
		Type:     typ,
		Pathname: "/test",
		Site:     site,
		Defaults: defaults,
		Matter:   matter.Fields,
		Tree:     tree,
	})
	require.Empty(t, warnings)
	return page{tree: tree, meta: m}
}

func TestRender_MinimalDocument(t *testing.T) {
	p := build(t, "# Hello, world!", "page", meta.Site{}, nil)

	out, err := (&HTML{}).Render(p.tree, p.meta)
	require.NoError(t, err)

	assert.Equal(t, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <title>Hello, world!</title>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <meta property="og:type" content="website"/>
    <meta property="og:url" content="/test"/>
    <link rel="icon" href="/favicon.ico" sizes="any"/>
    <link rel="apple-touch-icon" href="/apple-touch-icon.png"/>
  </head>
  <body>
    <h1 id="hello-world">Hello, world!</h1>
    <script type="application/ld+json">{"@context":"https://schema.org","@type":"WebSite","mainEntityOfPage":{"@type":"WebPage","@id":"/test"},"inLanguage":"en"}</script>
  </body>
</html>
`, string(out))
	assert.NotContains(t, string(out), `rel="canonical"`)
}

func TestRender_PageAssets(t *testing.T) {
	p := build(t, "---\nstylesheets: ./custom.css\nscripts: ./custom.js\n---\n\n# Custom", "page", meta.Site{}, nil)

	out, err := (&HTML{}).Render(p.tree, p.meta)
	require.NoError(t, err)

	assert.Contains(t, string(out), `<link rel="stylesheet" href="/test/custom.css"/>`)
	assert.Contains(t, string(out), "<script src=\"/test/custom.js\"></script>\n    <script type=\"application/ld+json\">")
}

func TestRender_ArticleWithLayout(t *testing.T) {
	layout, err := TemplateLayout("article", `<article class="{{.Meta.Type}}">{{.Content}}</article>`)
	require.NoError(t, err)

	defaults := meta.Defaults{"article": {"stylesheets": []any{"/styles.css"}}}
	p := build(t, "# An Article\n\nParagraphs and such.\n\n## Another Section\n\nWords are here.", "article", meta.Site{}, defaults)

	out, err := (&HTML{Layouts: Layouts{"article": layout}}).Render(p.tree, p.meta)
	require.NoError(t, err)

	assert.Contains(t, string(out), `<meta property="og:type" content="article"/>`)
	assert.Contains(t, string(out), `<link rel="stylesheet" href="/styles.css"/>`)
	assert.Contains(t, string(out), `  <body>
    <article class="article">
      <h1 id="an-article">An Article</h1>
      <p>Paragraphs and such.</p>
      <h2 id="another-section"><a href="#another-section">Another Section</a></h2>
      <p>Words are here.</p>
    </article>
`)
	assert.Contains(t, string(out), `{"@context":"https://schema.org","@type":"Article","mainEntityOfPage":{"@type":"WebPage","@id":"/test"},"inLanguage":"en","headline":"An Article"}`)
}

func TestRender_FrontMatter(t *testing.T) {
	src := "---\ndescription: Markdown matters\npublished: 2022-03-05\nlanguage: en-US\ndraft: true\n---\n\n# Essential Matters"
	p := build(t, src, "page", meta.Site{}, nil)

	out, err := (&HTML{Compact: true}).Render(p.tree, p.meta)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `<html lang="en-US">`)
	assert.Contains(t, s, `<meta name="robots" content="noindex"/>`)
	assert.Contains(t, s, `<meta name="description" property="og:description" content="Markdown matters"/>`)
	assert.Contains(t, s, `<meta property="article:published_time" content="2022-03-05T00:00:00.000Z"/>`)
	assert.Contains(t, s, `"datePublished":"2022-03-05T00:00:00.000Z","inLanguage":"en-US"`)
}

func TestRender_FullHeadAndDirectives(t *testing.T) {
	published := time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC)
	site := meta.Site{
		Host:     "https://example.org",
		Name:     "Just Doe It",
		Manifest: "/manifest.json",
		Feed:     &meta.Feed{Pathname: "/rss.xml", Title: "Latest Does"},
	}
	defaults := meta.Defaults{"page": {
		"author":      map[string]any{"name": "John Doe", "href": "https://john.doe.com"},
		"publisher":   map[string]any{"name": "PBLSHR", "href": "https://publisher.co", "logo": map[string]any{"src": "https://cdn.publisher.co/logo.bmp"}},
		"description": "Descriptive Copy",
		"prefetch":    "/prefetch",
		"published":   published,
		"stylesheets": []any{"/css/stylesheet.css", "/css/fonts.css"},
		"sameAs":      []any{"https://john.doe.org", "https://social.doe.com"},
		"icon":        map[string]any{"src": "/icon.png"},
	}}
	src := "# Title\n\n:::article{.wrapper}\nText with :abbr[HTML]{title=\"HyperText Markup Language\"}.\n:::\n\n::COPYRIGHT\n"
	p := build(t, src, "page", site, defaults)

	table := directives.Table{"COPYRIGHT": func(_ *mdast.Directive, _ int, _ mdast.Parent, doc directives.Document) (*html.Node, error) {
		pub := doc.Meta.Publisher
		return hast.El("footer", nil, hast.El("p", nil,
			hast.Text("© 2000, "),
			hast.El("a", hast.Attrs("href", pub.Href), hast.Text(pub.Name)),
		)), nil
	}}
	require.NoError(t, directives.Expand(p.tree, table, directives.Document{SourcePath: "test.md", Meta: p.meta}))

	out, err := (&HTML{}).Render(p.tree, p.meta)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, `    <meta property="og:site_name" content="Just Doe It"/>
    <meta property="og:url" content="https://example.org/test"/>
    <meta name="author" content="John Doe"/>
    <meta property="article:published_time" content="2000-03-01T00:00:00.000Z"/>
    <link rel="icon" href="/favicon.ico" sizes="any"/>
    <link rel="apple-touch-icon" href="/apple-touch-icon.png"/>
    <link rel="manifest" href="/manifest.json"/>
    <link rel="canonical" href="https://example.org/test"/>
    <link rel="stylesheet" href="/css/stylesheet.css"/>
    <link rel="stylesheet" href="/css/fonts.css"/>
    <link rel="icon" href="/icon.png" type="image/png"/>
    <link rel="prefetch" href="/prefetch"/>
    <link rel="alternate" type="application/rss+xml" href="https://example.org/rss.xml" title="Latest Does"/>
  </head>`)
	assert.Contains(t, s, `<article class="wrapper">
      <p>Text with <abbr title="HyperText Markup Language">HTML</abbr>.</p>
    </article>`)
	assert.Contains(t, s, `<footer>
      <p>© 2000, <a href="https://publisher.co">PBLSHR</a></p>
    </footer>`)
	assert.Contains(t, s, `"author":{"@type":"Person","name":"John Doe","url":"https://john.doe.com"},"publisher":{"@type":"Organization","@id":"https://publisher.co/#organization","name":"PBLSHR","logo":{"@type":"ImageObject","url":"https://cdn.publisher.co/logo.bmp"}},"sameAs":["https://john.doe.org","https://social.doe.com"]}`)

	// Rendering twice yields the same output; hint children are cloned.
	again, err := (&HTML{}).Render(p.tree, p.meta)
	require.NoError(t, err)
	assert.Equal(t, s, string(again))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"tight list", "- a\n- b\n", "<ul><li>a</li><li>b</li></ul>"},
		{"loose list", "- a\n\n- b\n", "<ul><li><p>a</p></li><li><p>b</p></li></ul>"},
		{"ordered start", "3. x\n", `<ol start="3"><li>x</li></ol>`},
		{"task", "- [x] done\n", `<ul><li class="task-list-item"><input type="checkbox" disabled="disabled" checked="checked"/> done</li></ul>`},
		{"code", "```go\nx := 1\n```\n", "<pre><code class=\"language-go\">x := 1\n</code></pre>"},
		{"reference", "[a][1]\n\n[1]: /x \"T\"\n", `<p><a href="/x" title="T">a</a></p>`},
		{"definitions between paragraphs", "See [a][1].\n\n[1]: /x\n[2]: /y\n\nAfter.\n", `<p>See <a href="/x">a</a>.</p><p>After.</p>`},
		{"table", "| a | b |\n|:--|--:|\n| 1 | 2 |\n", `<table><thead><tr><th align="left">a</th><th align="right">b</th></tr></thead><tbody><tr><td align="left">1</td><td align="right">2</td></tr></tbody></table>`},
		{"inline", "*e* **s** ~~d~~ `c`\n", "<p><em>e</em> <strong>s</strong> <del>d</del> <code>c</code></p>"},
		{"image", "![alt](/i.png)\n", `<p><img src="/i.png" alt="alt"/></p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := markdown.New().Parse([]byte(tt.src))
			require.NoError(t, err)
			got, err := Fragment(tree)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_UnresolvedReferencesRevertToText(t *testing.T) {
	tree := mdast.NewRoot(mdast.NewParagraph(
		mdast.NewLinkReference("missing", mdast.ReferenceFull, mdast.NewText("a")),
		mdast.NewText(" "),
		mdast.NewLinkReference("b", mdast.ReferenceShortcut, mdast.NewText("b")),
		mdast.NewText(" "),
		mdast.NewImageReference("logo", mdast.ReferenceCollapsed, "logo"),
	))

	got, err := Fragment(tree)
	require.NoError(t, err)
	assert.Equal(t, "<p>[a][missing] [b] ![logo][]</p>", got)
}

func TestFragment_WithoutTitle(t *testing.T) {
	tree, err := markdown.New().Parse([]byte("# Title\n\nBody text.\n"))
	require.NoError(t, err)

	got, err := Fragment(mdast.WithoutTitle(tree))
	require.NoError(t, err)
	assert.Equal(t, "<p>Body text.</p>", got)
}

func TestPlainText(t *testing.T) {
	tree, err := markdown.New().Parse([]byte("# Title\n\nSome *text*.\n\n- one\n- two\n\n```\ncode\n```\n"))
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome text.\none\ntwo\ncode", PlainText(tree))
}

func TestLayoutsSelect(t *testing.T) {
	marker := func(name string) Layout {
		return func(_ []*html.Node, _ *meta.Metadata) ([]*html.Node, error) {
			return []*html.Node{hast.Text(name)}, nil
		}
	}
	layouts := Layouts{"page": marker("page"), "article": marker("article"), "wide": marker("wide")}

	tests := []struct {
		m    *meta.Metadata
		want string
	}{
		{&meta.Metadata{Type: "article", Layout: "wide"}, "wide"},
		{&meta.Metadata{Type: "article"}, "article"},
		{&meta.Metadata{Type: "recipe"}, "page"},
	}
	for _, tt := range tests {
		out, err := layouts.Select(tt.m)(nil, tt.m)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out[0].Data)
	}

	out, err := Layouts(nil).Select(&meta.Metadata{})([]*html.Node{hast.Text("x")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", out[0].Data)
}

func TestHeadingSlugs_KeepsExistingIDs(t *testing.T) {
	body := hast.El("body", nil,
		hast.El("h2", hast.Attrs("id", "intro"), hast.Text("Custom")),
		hast.El("h2", nil, hast.Text("Intro")),
		hast.El("h3", nil, hast.Text("Intro")),
	)
	_, err := HeadingSlugs{}.Apply(body, &meta.Metadata{})
	require.NoError(t, err)

	hs := hast.FindAll(body, hast.IsHeading)
	assert.Equal(t, "intro", hast.GetAttr(hs[0], "id"))
	assert.Equal(t, "intro-1", hast.GetAttr(hs[1], "id"))
	assert.Equal(t, "intro-2", hast.GetAttr(hs[2], "id"))
}

func TestHeadingAnchors_OnlyArticles(t *testing.T) {
	mk := func() *html.Node {
		return hast.El("body", nil, hast.El("h2", hast.Attrs("id", "s"), hast.Text("S")))
	}

	page := mk()
	_, err := HeadingAnchors{}.Apply(page, &meta.Metadata{Type: "page"})
	require.NoError(t, err)
	assert.Nil(t, hast.Find(page, hast.Tag("a")))

	article := mk()
	_, err = HeadingAnchors{}.Apply(article, &meta.Metadata{Type: "article"})
	require.NoError(t, err)
	a := hast.Find(article, hast.Tag("a"))
	require.NotNil(t, a)
	assert.Equal(t, "#s", hast.GetAttr(a, "href"))
}

func TestMetaTags_Twitter(t *testing.T) {
	m := &meta.Metadata{
		Host:   "https://example.org",
		Title:  "T",
		Author: &meta.Author{Name: "A", Twitter: "@a"},
		Image:  &meta.Image{Src: "/img.png"},
	}
	var names []string
	for _, tag := range MetaTags(m) {
		if n := hast.GetAttr(tag, "name"); n != "" {
			names = append(names, n)
		}
		if hast.GetAttr(tag, "name") == "twitter:image" {
			assert.Equal(t, "https://example.org/img.png", hast.GetAttr(tag, "content"))
		}
	}
	assert.Equal(t, []string{
		"author", "twitter:title", "twitter:description", "twitter:card",
		"twitter:image", "twitter:site", "twitter:creator", "twitter:image:alt",
	}, names)
}
