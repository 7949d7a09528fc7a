package render

import (
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// Stage transforms the HTML body content of a document before the layout
// is applied. body is a detached <body> element.
type Stage interface {
	Name() string
	Apply(body *html.Node, m *meta.Metadata) (*html.Node, error)
}

// DefaultStages are run by HTML when no stages are configured.
func DefaultStages() []Stage {
	return []Stage{HeadingSlugs{}, HeadingAnchors{}}
}

// HeadingSlugs gives every heading without an id a unique slug id.
type HeadingSlugs struct{}

func (HeadingSlugs) Name() string { return "heading-slugs" }

func (HeadingSlugs) Apply(body *html.Node, _ *meta.Metadata) (*html.Node, error) {
	slugs := hast.NewSlugger()
	headings := hast.FindAll(body, hast.IsHeading)
	for _, h := range headings {
		if id := hast.GetAttr(h, "id"); id != "" {
			slugs.Reserve(id)
		}
	}
	for _, h := range headings {
		if hast.HasAttr(h, "id") {
			continue
		}
		if slug := slugs.Slug(hast.TextContent(h)); slug != "" {
			hast.SetAttr(h, "id", slug)
		}
	}
	return body, nil
}

// HeadingAnchors wraps the content of h2 to h6 headings of articles in a
// link to the heading itself.
type HeadingAnchors struct{}

func (HeadingAnchors) Name() string { return "heading-anchors" }

func (HeadingAnchors) Apply(body *html.Node, m *meta.Metadata) (*html.Node, error) {
	if m == nil || !m.IsArticle() {
		return body, nil
	}
	for _, h := range hast.FindAll(body, hast.IsHeading) {
		id := hast.GetAttr(h, "id")
		if hast.HeadingRank(h) < 2 || id == "" || hast.Find(h, hast.Tag("a")) != nil {
			continue
		}
		hast.Append(h, hast.El("a", hast.Attrs("href", "#"+id), hast.Children(h)...))
	}
	return body, nil
}
