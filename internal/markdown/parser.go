// Package markdown turns Markdown source into an mdast tree.
//
// Block and inline structure come from goldmark with the GFM table,
// strikethrough and task list extensions plus the directive extension in
// this package. Reference links keep their identity: goldmark resolves them
// during parsing, so the converter recovers the reference form from the
// source and re-creates the definitions from the parse context.
package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdsite/internal/mdast"
)

// Parser parses a Markdown body (front matter already removed) into a tree.
type Parser interface {
	Parse(source []byte) (*mdast.Root, error)
}

// Goldmark is the default Parser.
type Goldmark struct {
	md goldmark.Markdown
}

// New returns a goldmark-backed parser. Extra extensions are appended to the
// default set.
func New(extensions ...goldmark.Extender) *Goldmark {
	exts := append([]goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		Directives,
	}, extensions...)
	return &Goldmark{md: goldmark.New(goldmark.WithExtensions(exts...))}
}

// Parse implements Parser.
func (g *Goldmark) Parse(source []byte) (*mdast.Root, error) {
	ctx := parser.NewContext()
	doc := g.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	c := &converter{parser: g, source: source, refs: ctx.References()}
	root := mdast.NewRoot(c.children(doc)...)
	root.Children = append(root.Children, c.definitions()...)
	return root, nil
}

// fragment parses inline Markdown (a directive label) with the references of
// the enclosing document available.
func (g *Goldmark) fragment(source []byte, refs []parser.Reference) []mdast.Node {
	ctx := parser.NewContext()
	for _, r := range refs {
		ctx.AddReference(r)
	}
	doc := g.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))
	c := &converter{parser: g, source: source, refs: refs}

	var out []mdast.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == gast.KindParagraph {
			out = append(out, c.children(n)...)
			continue
		}
		out = append(out, c.node(n)...)
	}
	return out
}

// definitions re-creates definition nodes from the goldmark parse context,
// sorted by label so output is deterministic.
func (c *converter) definitions() []mdast.Node {
	refs := append([]parser.Reference(nil), c.refs...)
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	out := make([]mdast.Node, 0, len(refs))
	for _, r := range refs {
		out = append(out, mdast.NewDefinition(string(r.Label()), string(r.Destination()), string(r.Title())))
	}
	return out
}
