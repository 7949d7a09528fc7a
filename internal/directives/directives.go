// Package directives expands generic directive syntax (:name, ::name and
// :::name) into render hints on the Markdown tree.
//
// A directive whose name is registered in a Table is handed to its Visitor,
// and the returned element decides the tag, attributes and content the
// renderer emits. Unregistered names degrade to an element named after the
// directive that keeps its attributes and content.
package directives

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// Document is the per-document context passed to visitors.
type Document struct {
	SourcePath string
	Meta       *meta.Metadata
}

// Visitor builds the element a directive expands to. index and parent
// locate the node in the tree; parent is never nil.
type Visitor func(node *mdast.Directive, index int, parent mdast.Parent, doc Document) (*html.Node, error)

// Table maps directive names to visitors.
type Table map[string]Visitor

// Names returns the registered directive names.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

// Expand sets render hints on every directive of root.
//
// Text directives glued to a preceding word ("key:value") are turned back
// into literal text first. Visitor failures are collected and returned
// together; a failing directive keeps the generic rendering.
func Expand(root *mdast.Root, table Table, doc Document) error {
	restoreLiterals(root)

	var errs []error
	mdast.Walk(root, func(n mdast.Node, index int, parent mdast.Parent) mdast.WalkStatus {
		d, ok := n.(*mdast.Directive)
		if !ok {
			return mdast.WalkContinue
		}
		generic(d)
		visit, known := table[d.Name]
		if !known || parent == nil {
			return mdast.WalkContinue
		}
		el, err := visit(d, index, parent, doc)
		if err != nil {
			errs = append(errs, derrors.WrapError(err, derrors.CategoryDirective, "directive visitor failed").
				WithContext("directive", d.Name).
				WithContext("path", doc.SourcePath).
				Build())
			return mdast.WalkContinue
		}
		if el != nil {
			apply(d, el)
		}
		return mdast.WalkContinue
	})
	return errors.Join(errs...)
}

// generic renders d as an element with its own name and attributes.
func generic(d *mdast.Directive) {
	h := d.Hints()
	h.Name = d.Name
	h.Properties = append([]html.Attribute(nil), d.Attributes...)
}

// apply copies the tag, attributes and children of el onto d's hints. The
// children are detached from el. An element without children keeps the
// directive's own content.
func apply(d *mdast.Directive, el *html.Node) {
	h := d.Hints()
	if el.Type == html.ElementNode {
		h.Name = el.Data
		h.Properties = el.Attr
	}
	if el.FirstChild == nil {
		return
	}
	h.Children = nil
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		h.Children = append(h.Children, c)
		c = next
	}
}

// restoreLiterals replaces text directives that directly follow a
// non-space character with their source text.
func restoreLiterals(n mdast.Node) {
	if d, ok := n.(*mdast.Directive); ok {
		for _, l := range d.Label {
			restoreLiterals(l)
		}
	}
	p, ok := n.(mdast.Parent)
	if !ok {
		return
	}
	kids := p.ChildNodes()
	out := make([]mdast.Node, 0, len(kids))
	for _, c := range kids {
		if prev, ok := lastText(out); ok {
			if d, isDir := c.(*mdast.Directive); isDir && d.Variant == mdast.KindTextDirective && endsInWord(prev.Value) {
				prev.Value += d.Raw
				continue
			}
			// Adjacent text only occurs after a restore.
			if t, isText := c.(*mdast.Text); isText && !t.HasHints() {
				prev.Value += t.Value
				continue
			}
		}
		restoreLiterals(c)
		out = append(out, c)
	}
	p.SetChildNodes(out)
}

func lastText(nodes []mdast.Node) (*mdast.Text, bool) {
	if len(nodes) == 0 {
		return nil, false
	}
	t, ok := nodes[len(nodes)-1].(*mdast.Text)
	if !ok || t.HasHints() {
		return nil, false
	}
	return t, true
}

func endsInWord(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && !unicode.IsSpace(r)
}
