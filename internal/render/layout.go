package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// Layout wraps the rendered body content of a document.
type Layout func(children []*html.Node, m *meta.Metadata) ([]*html.Node, error)

// Layouts maps a layout or document type name to a Layout.
type Layouts map[string]Layout

// Select returns the layout named by m.Layout, else the one registered for
// the document type, else the generic one. Without any match the content
// is used as is.
func (l Layouts) Select(m *meta.Metadata) Layout {
	for _, name := range []string{m.Layout, m.Type, meta.GenericType} {
		if name == "" {
			continue
		}
		if layout, ok := l[name]; ok {
			return layout
		}
	}
	return Identity
}

// Identity returns the children unchanged.
func Identity(children []*html.Node, _ *meta.Metadata) ([]*html.Node, error) {
	return children, nil
}

// LayoutData is the value a layout template is executed with.
type LayoutData struct {
	Meta    *meta.Metadata
	Content template.HTML
}

// TemplateLayout returns a Layout that executes text as an html/template.
// The document content is available as .Content and the metadata as .Meta.
func TemplateLayout(name, text string) (Layout, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", name, err)
	}
	return func(children []*html.Node, m *meta.Metadata) ([]*html.Node, error) {
		var content bytes.Buffer
		for _, c := range children {
			if err := html.Render(&content, c); err != nil {
				return nil, fmt.Errorf("layout %s: %w", name, err)
			}
		}

		var out bytes.Buffer
		// #nosec G203 -- content is the renderer's own output
		data := LayoutData{Meta: m, Content: template.HTML(content.String())}
		if err := tmpl.Execute(&out, data); err != nil {
			return nil, fmt.Errorf("execute layout %s: %w", name, err)
		}

		body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		nodes, err := html.ParseFragment(&out, body)
		if err != nil {
			return nil, fmt.Errorf("parse layout %s output: %w", name, err)
		}
		return nodes, nil
	}, nil
}

// LoadLayouts reads layout templates from a name to file mapping.
func LoadLayouts(files map[string]string) (Layouts, error) {
	layouts := make(Layouts, len(files))
	for name, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read layout %s: %w", name, err)
		}
		layout, err := TemplateLayout(name, string(text))
		if err != nil {
			return nil, err
		}
		layouts[name] = layout
	}
	return layouts, nil
}
