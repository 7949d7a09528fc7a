package mdast

import "golang.org/x/net/html"

// Kind names a node type.
type Kind string

const (
	KindRoot               Kind = "root"
	KindParagraph          Kind = "paragraph"
	KindHeading            Kind = "heading"
	KindThematicBreak      Kind = "thematicBreak"
	KindBlockquote         Kind = "blockquote"
	KindList               Kind = "list"
	KindListItem           Kind = "listItem"
	KindCode               Kind = "code"
	KindHTML               Kind = "html"
	KindDefinition         Kind = "definition"
	KindText               Kind = "text"
	KindEmphasis           Kind = "emphasis"
	KindStrong             Kind = "strong"
	KindDelete             Kind = "delete"
	KindInlineCode         Kind = "inlineCode"
	KindBreak              Kind = "break"
	KindLink               Kind = "link"
	KindImage              Kind = "image"
	KindLinkReference      Kind = "linkReference"
	KindImageReference     Kind = "imageReference"
	KindTable              Kind = "table"
	KindTableRow           Kind = "tableRow"
	KindTableCell          Kind = "tableCell"
	KindTextDirective      Kind = "textDirective"
	KindLeafDirective      Kind = "leafDirective"
	KindContainerDirective Kind = "containerDirective"
)

// Hints override how the renderer turns a node into HTML.
type Hints struct {
	// Name replaces the element tag.
	Name string
	// Properties replaces the element attributes.
	Properties []html.Attribute
	// Children, when non-nil, replaces the converted child content.
	Children []*html.Node
}

// Node is implemented by every tree node.
type Node interface {
	Kind() Kind
	// Hints returns the node's render hints, allocating them on first use.
	Hints() *Hints
	// HasHints reports whether render hints were set.
	HasHints() bool
}

// Parent is a node with child nodes.
type Parent interface {
	Node
	ChildNodes() []Node
	SetChildNodes(children []Node)
}

// Base carries the render hints shared by all nodes.
type Base struct {
	hints *Hints
}

func (b *Base) Hints() *Hints {
	if b.hints == nil {
		b.hints = &Hints{}
	}
	return b.hints
}

func (b *Base) HasHints() bool { return b.hints != nil }

// Container is embedded by nodes that hold children.
type Container struct {
	Base
	Children []Node
}

func (c *Container) ChildNodes() []Node            { return c.Children }
func (c *Container) SetChildNodes(children []Node) { c.Children = children }

type Root struct{ Container }

type Paragraph struct{ Container }

type Heading struct {
	Container
	Depth int
}

type ThematicBreak struct{ Base }

type Blockquote struct{ Container }

type List struct {
	Container
	Ordered bool
	Start   int
	Spread  bool
}

type ListItem struct {
	Container
	// Checked is nil for plain items and set for task list items.
	Checked *bool
	Spread  bool
}

type Code struct {
	Base
	Lang  string
	Meta  string
	Value string
}

type HTML struct {
	Base
	Value string
}

// Definition is a link reference definition: [identifier]: url "title".
type Definition struct {
	Base
	Identifier string
	Label      string
	URL        string
	Title      string
}

type Text struct {
	Base
	Value string
}

type Emphasis struct{ Container }

type Strong struct{ Container }

type Delete struct{ Container }

type InlineCode struct {
	Base
	Value string
}

type Break struct{ Base }

type Link struct {
	Container
	URL   string
	Title string
}

type Image struct {
	Base
	URL   string
	Title string
	Alt   string
}

// ReferenceType is the syntactic form of a reference usage.
type ReferenceType string

const (
	ReferenceFull      ReferenceType = "full"
	ReferenceCollapsed ReferenceType = "collapsed"
	ReferenceShortcut  ReferenceType = "shortcut"
)

type LinkReference struct {
	Container
	Identifier    string
	Label         string
	ReferenceType ReferenceType
}

type ImageReference struct {
	Base
	Identifier    string
	Label         string
	Alt           string
	ReferenceType ReferenceType
}

// Align is a table column alignment; empty means none.
type Align string

const (
	AlignNone   Align = ""
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

type Table struct {
	Container
	Align []Align
}

type TableRow struct{ Container }

type TableCell struct{ Container }

// Directive is a text (:name), leaf (::name) or container (:::name) directive.
//
// For text and leaf directives the label content is stored as Children. For
// container directives Children holds the wrapped blocks and Label the label.
type Directive struct {
	Container
	Variant    Kind
	Name       string
	Attributes []html.Attribute
	Label      []Node
	// Raw is the directive's source text, used to restore it as literal text.
	Raw string
}

func (*Root) Kind() Kind           { return KindRoot }
func (*Paragraph) Kind() Kind      { return KindParagraph }
func (*Heading) Kind() Kind        { return KindHeading }
func (*ThematicBreak) Kind() Kind  { return KindThematicBreak }
func (*Blockquote) Kind() Kind     { return KindBlockquote }
func (*List) Kind() Kind           { return KindList }
func (*ListItem) Kind() Kind       { return KindListItem }
func (*Code) Kind() Kind           { return KindCode }
func (*HTML) Kind() Kind           { return KindHTML }
func (*Definition) Kind() Kind     { return KindDefinition }
func (*Text) Kind() Kind           { return KindText }
func (*Emphasis) Kind() Kind       { return KindEmphasis }
func (*Strong) Kind() Kind         { return KindStrong }
func (*Delete) Kind() Kind         { return KindDelete }
func (*InlineCode) Kind() Kind     { return KindInlineCode }
func (*Break) Kind() Kind          { return KindBreak }
func (*Link) Kind() Kind           { return KindLink }
func (*Image) Kind() Kind          { return KindImage }
func (*LinkReference) Kind() Kind  { return KindLinkReference }
func (*ImageReference) Kind() Kind { return KindImageReference }
func (*Table) Kind() Kind          { return KindTable }
func (*TableRow) Kind() Kind       { return KindTableRow }
func (*TableCell) Kind() Kind      { return KindTableCell }
func (d *Directive) Kind() Kind    { return d.Variant }

// Attr returns the value of a directive attribute.
func (d *Directive) Attr(key string) (string, bool) {
	for _, a := range d.Attributes {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// LabelText returns the plain text of the directive label.
func (d *Directive) LabelText() string {
	if d.Variant == KindContainerDirective {
		return ToString(d.Label...)
	}
	return ToString(d.Children...)
}
