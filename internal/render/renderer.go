// Package render turns a transformed Markdown tree and its metadata into a
// complete HTML document.
//
// Rendering converts the tree to golang.org/x/net/html nodes, runs the
// body stages (heading ids, article anchors and caller stages), wraps the
// result in the selected layout and assembles the head from the metadata:
// meta and link tags, scripts and a JSON-LD record.
package render

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// Renderer produces the output bytes of one document.
type Renderer interface {
	Render(tree *mdast.Root, m *meta.Metadata) ([]byte, error)
}

// HTML is the default Renderer.
type HTML struct {
	// Stages run on the body content in order. Nil selects DefaultStages.
	Stages  []Stage
	Layouts Layouts
	// Compact disables indentation of the output.
	Compact bool
}

// Render implements Renderer.
func (r *HTML) Render(tree *mdast.Root, m *meta.Metadata) ([]byte, error) {
	body := hast.El("body", nil, Convert(tree)...)

	stages := r.Stages
	if stages == nil {
		stages = DefaultStages()
	}
	for _, s := range stages {
		out, err := s.Apply(body, m)
		if err != nil {
			return nil, fmt.Errorf("render stage %s: %w", s.Name(), err)
		}
		if out != nil {
			body = out
		}
	}

	content, err := r.Layouts.Select(m)(hast.Children(body), m)
	if err != nil {
		return nil, err
	}

	doc, err := Document(content, m)
	if err != nil {
		return nil, err
	}
	if !r.Compact {
		Indent(doc)
	}
	return Serialize(doc)
}

// Document assembles the <html> element around the body content.
func Document(content []*html.Node, m *meta.Metadata) (*html.Node, error) {
	head := hast.El("head", nil,
		hast.El("meta", hast.Attrs("charset", "utf-8")),
		hast.El("title", nil, hast.Text(m.Title)),
		hast.El("meta", hast.Attrs("name", "viewport", "content", "width=device-width, initial-scale=1")),
	)
	hast.Append(head, MetaTags(m)...)
	hast.Append(head, LinkTags(m)...)

	body := hast.El("body", nil, content...)
	for _, src := range m.BodyScripts() {
		hast.Append(body, hast.El("script", hast.Attrs("src", src)))
	}
	ld, err := NewStructuredData(m).JSON()
	if err != nil {
		return nil, fmt.Errorf("structured data: %w", err)
	}
	hast.Append(body, hast.El("script", hast.Attrs("type", "application/ld+json"), hast.Text(ld)))

	lang := m.Language
	if lang == "" {
		lang = "en"
	}
	return hast.El("html", hast.Attrs("lang", lang), head, body), nil
}

// Serialize writes the doctype and the document.
func Serialize(doc *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!doctype html>\n")
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("serialize html: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Fragment renders a tree without document chrome, for feed excerpts.
func Fragment(tree *mdast.Root) (string, error) {
	var buf bytes.Buffer
	for _, n := range Convert(tree) {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return buf.String(), nil
}
