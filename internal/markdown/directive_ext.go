package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// directiveFields is shared by the three goldmark directive nodes.
type directiveFields struct {
	Name     string
	Label    []byte
	HasLabel bool
	Attrs    []html.Attribute
	Raw      []byte
}

func (f *directiveFields) dump() map[string]string {
	kv := map[string]string{"Name": f.Name}
	if f.HasLabel {
		kv["Label"] = string(f.Label)
	}
	attrs := make([]string, 0, len(f.Attrs))
	for _, a := range f.Attrs {
		attrs = append(attrs, a.Key+"="+a.Val)
	}
	kv["Attributes"] = strings.Join(attrs, " ")
	return kv
}

// TextDirective is the goldmark node for `:name[label]{attrs}`.
type TextDirective struct {
	gast.BaseInline
	directiveFields
}

// LeafDirective is the goldmark node for a `::name[label]{attrs}` line.
type LeafDirective struct {
	gast.BaseBlock
	directiveFields
}

// ContainerDirective is the goldmark node for a `:::name` fenced block.
type ContainerDirective struct {
	gast.BaseBlock
	directiveFields
	fence int
}

var (
	KindTextDirective      = gast.NewNodeKind("TextDirective")
	KindLeafDirective      = gast.NewNodeKind("LeafDirective")
	KindContainerDirective = gast.NewNodeKind("ContainerDirective")
)

func (n *TextDirective) Kind() gast.NodeKind      { return KindTextDirective }
func (n *LeafDirective) Kind() gast.NodeKind      { return KindLeafDirective }
func (n *ContainerDirective) Kind() gast.NodeKind { return KindContainerDirective }

func (n *TextDirective) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, n.dump(), nil)
}

func (n *LeafDirective) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, n.dump(), nil)
}

func (n *ContainerDirective) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, n.dump(), nil)
}

type textDirectiveParser struct{}

func (textDirectiveParser) Trigger() []byte { return []byte{':'} }

func (textDirectiveParser) Parse(_ gast.Node, block text.Reader, _ parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 || line[1] == ':' {
		return nil
	}
	head, ok := parseDirectiveHead(line[1:])
	if !ok {
		return nil
	}
	n := &TextDirective{directiveFields: fieldsFromHead(head, line[:1+head.n])}
	block.Advance(1 + head.n)
	return n
}

type blockDirectiveParser struct{}

func (blockDirectiveParser) Trigger() []byte { return []byte{':'} }

func (blockDirectiveParser) Open(_ gast.Node, reader text.Reader, pc parser.Context) (gast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	colons := 0
	for pos+colons < len(line) && line[pos+colons] == ':' {
		colons++
	}
	if colons < 2 {
		return nil, parser.NoChildren
	}
	rest := line[pos+colons:]
	head, ok := parseDirectiveHead(rest)
	if !ok || !util.IsBlank(rest[head.n:]) {
		return nil, parser.NoChildren
	}
	fields := fieldsFromHead(head, trimEOL(line[pos:]))
	reader.AdvanceToEOL()

	if colons == 2 {
		return &LeafDirective{directiveFields: fields}, parser.NoChildren
	}
	return &ContainerDirective{directiveFields: fields, fence: colons}, parser.HasChildren
}

func (blockDirectiveParser) Continue(node gast.Node, reader text.Reader, _ parser.Context) parser.State {
	c, ok := node.(*ContainerDirective)
	if !ok {
		return parser.Close
	}
	line, _ := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		i := pos
		for i < len(line) && line[i] == ':' {
			i++
		}
		if i-pos >= c.fence && util.IsBlank(line[i:]) {
			reader.AdvanceToEOL()
			return parser.Close
		}
	}
	return parser.Continue | parser.HasChildren
}

func (blockDirectiveParser) Close(gast.Node, text.Reader, parser.Context) {}

func (blockDirectiveParser) CanInterruptParagraph() bool { return true }

func (blockDirectiveParser) CanAcceptIndentedLine() bool { return false }

func fieldsFromHead(h directiveHead, raw []byte) directiveFields {
	return directiveFields{
		Name:     h.name,
		Label:    h.label,
		HasLabel: h.hasLabel,
		Attrs:    h.attrs,
		Raw:      append([]byte(nil), raw...),
	}
}

func trimEOL(b []byte) []byte {
	return []byte(strings.TrimRight(string(b), " \t\r\n"))
}

type directiveExtension struct{}

// Directives is a goldmark extension that parses generic directive syntax:
// `:name[label]{attrs}` inline, `::name[label]{attrs}` as a standalone line,
// and `:::name[label]{attrs}` blocks closed by a fence of at least as many colons.
var Directives goldmark.Extender = directiveExtension{}

func (directiveExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(blockDirectiveParser{}, 750)),
		parser.WithInlineParsers(util.Prioritized(textDirectiveParser{}, 600)),
	)
}
