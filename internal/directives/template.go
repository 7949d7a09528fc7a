package directives

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// ErrNoElement is returned when a directive template renders no element.
var ErrNoElement = errors.New("directive template produced no element")

// TemplateData is the value a directive template is executed with.
type TemplateData struct {
	Name       string
	Label      string
	Attributes map[string]string
	Meta       *meta.Metadata
	SourcePath string
}

// FromTemplate returns a visitor that renders text as an html/template and
// uses the single top-level element of the output. Output with several
// top-level elements is wrapped in a div.
func FromTemplate(name, text string) (Visitor, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse directive template %s: %w", name, err)
	}

	return func(node *mdast.Directive, _ int, _ mdast.Parent, doc Document) (*html.Node, error) {
		data := TemplateData{
			Name:       node.Name,
			Label:      node.LabelText(),
			Attributes: make(map[string]string, len(node.Attributes)),
			Meta:       doc.Meta,
			SourcePath: doc.SourcePath,
		}
		for _, a := range node.Attributes {
			data.Attributes[a.Key] = a.Val
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute directive template %s: %w", name, err)
		}
		return parseElement(&buf)
	}, nil
}

// LoadTemplates builds a Table from a name to template file mapping.
func LoadTemplates(files map[string]string) (Table, error) {
	table := make(Table, len(files))
	for name, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read directive template %s: %w", name, err)
		}
		visit, err := FromTemplate(name, string(text))
		if err != nil {
			return nil, err
		}
		table[name] = visit
	}
	return table, nil
}

// Merge returns a table holding the visitors of all tables. Later tables
// win on name clashes.
func Merge(tables ...Table) Table {
	out := make(Table)
	for _, t := range tables {
		for name, v := range t {
			out[name] = v
		}
	}
	return out
}

func parseElement(buf *bytes.Buffer) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(buf, body)
	if err != nil {
		return nil, fmt.Errorf("parse directive template output: %w", err)
	}

	var elements []*html.Node
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			elements = append(elements, n)
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				elements = append(elements, n)
			}
		}
	}

	switch {
	case len(elements) == 0:
		return nil, ErrNoElement
	case len(elements) == 1 && elements[0].Type == html.ElementNode:
		return elements[0], nil
	}
	wrapper := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range elements {
		wrapper.AppendChild(n)
	}
	return wrapper, nil
}
