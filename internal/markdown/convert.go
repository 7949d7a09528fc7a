package markdown

import (
	"bytes"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdsite/internal/mdast"
)

type converter struct {
	parser *Goldmark
	source []byte
	refs   []parser.Reference
}

func (c *converter) children(n gast.Node) []mdast.Node {
	var out []mdast.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.node(child)...)
	}
	return mergeText(out)
}

func (c *converter) container(n gast.Node) mdast.Container {
	return mdast.Container{Children: c.children(n)}
}

func (c *converter) node(n gast.Node) []mdast.Node {
	switch v := n.(type) {
	case *gast.Paragraph, *gast.TextBlock:
		// A paragraph made only of reference definitions is left empty.
		if v.Lines().Len() == 0 && !v.HasChildren() {
			return nil
		}
		return one(&mdast.Paragraph{Container: c.container(v)})
	case *gast.Heading:
		return one(&mdast.Heading{Container: c.container(v), Depth: v.Level})
	case *gast.ThematicBreak:
		return one(&mdast.ThematicBreak{})
	case *gast.Blockquote:
		return one(&mdast.Blockquote{Container: c.container(v)})
	case *gast.List:
		return one(&mdast.List{Container: c.container(v), Ordered: v.IsOrdered(), Start: v.Start, Spread: !v.IsTight})
	case *gast.ListItem:
		return one(c.listItem(v))
	case *gast.CodeBlock:
		return one(&mdast.Code{Value: c.lines(v)})
	case *gast.FencedCodeBlock:
		return one(c.fencedCode(v))
	case *gast.HTMLBlock:
		value := c.lines(v)
		if v.HasClosure() {
			value += "\n" + string(v.ClosureLine.Value(c.source))
		}
		return one(&mdast.HTML{Value: strings.TrimRight(value, "\n")})
	case *gast.Text:
		return c.text(v)
	case *gast.String:
		return one(mdast.NewText(string(v.Value)))
	case *gast.Emphasis:
		if v.Level >= 2 {
			return one(&mdast.Strong{Container: c.container(v)})
		}
		return one(&mdast.Emphasis{Container: c.container(v)})
	case *gast.CodeSpan:
		return one(&mdast.InlineCode{Value: c.codeSpan(v)})
	case *gast.Link:
		return one(c.link(v))
	case *gast.Image:
		return one(c.image(v))
	case *gast.AutoLink:
		url := string(v.URL(c.source))
		if v.AutoLinkType == gast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return one(mdast.NewLink(url, "", mdast.NewText(string(v.Label(c.source)))))
	case *gast.RawHTML:
		var b strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		return one(&mdast.HTML{Value: b.String()})
	case *east.Strikethrough:
		return one(&mdast.Delete{Container: c.container(v)})
	case *east.Table:
		return one(c.table(v))
	case *east.TableHeader, *east.TableRow:
		return one(&mdast.TableRow{Container: c.container(v)})
	case *east.TableCell:
		return one(&mdast.TableCell{Container: c.container(v)})
	case *east.TaskCheckBox:
		return nil
	case *TextDirective:
		return one(c.directive(mdast.KindTextDirective, &v.directiveFields, nil))
	case *LeafDirective:
		return one(c.directive(mdast.KindLeafDirective, &v.directiveFields, nil))
	case *ContainerDirective:
		return one(c.directive(mdast.KindContainerDirective, &v.directiveFields, c.children(v)))
	default:
		return c.children(n)
	}
}

func one(n mdast.Node) []mdast.Node { return []mdast.Node{n} }

func (c *converter) text(t *gast.Text) []mdast.Node {
	raw := t.Segment.Value(c.source)
	value := string(raw)
	if !t.IsRaw() {
		value = unescape(raw)
	}
	if t.SoftLineBreak() {
		value += "\n"
	}
	out := []mdast.Node{mdast.NewText(value)}
	if t.HardLineBreak() {
		out = append(out, &mdast.Break{})
	}
	return out
}

func (c *converter) lines(n gast.Node) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (c *converter) fencedCode(v *gast.FencedCodeBlock) *mdast.Code {
	code := &mdast.Code{Value: c.lines(v)}
	if v.Info != nil {
		info := strings.TrimSpace(string(v.Info.Segment.Value(c.source)))
		lang := string(v.Language(c.source))
		code.Lang = lang
		code.Meta = strings.TrimSpace(strings.TrimPrefix(info, lang))
	}
	return code
}

func (c *converter) codeSpan(v *gast.CodeSpan) string {
	var b strings.Builder
	for child := v.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*gast.Text); ok {
			b.Write(t.Segment.Value(c.source))
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

func (c *converter) listItem(v *gast.ListItem) *mdast.ListItem {
	item := &mdast.ListItem{}
	if first := v.FirstChild(); first != nil {
		if box, ok := first.FirstChild().(*east.TaskCheckBox); ok {
			checked := box.IsChecked
			item.Checked = &checked
		}
	}
	item.Children = c.children(v)
	if item.Checked != nil && len(item.Children) > 0 {
		if p, ok := item.Children[0].(*mdast.Paragraph); ok && len(p.Children) > 0 {
			if t, ok := p.Children[0].(*mdast.Text); ok {
				t.Value = strings.TrimLeft(t.Value, " ")
			}
		}
	}
	return item
}

func (c *converter) table(v *east.Table) *mdast.Table {
	t := &mdast.Table{Container: c.container(v)}
	for _, a := range v.Alignments {
		switch a {
		case east.AlignLeft:
			t.Align = append(t.Align, mdast.AlignLeft)
		case east.AlignRight:
			t.Align = append(t.Align, mdast.AlignRight)
		case east.AlignCenter:
			t.Align = append(t.Align, mdast.AlignCenter)
		default:
			t.Align = append(t.Align, mdast.AlignNone)
		}
	}
	return t
}

func (c *converter) link(v *gast.Link) mdast.Node {
	children := c.children(v)
	if refType, label, ok := c.referenceForm(v); ok {
		return mdast.NewLinkReference(label, refType, children...)
	}
	return mdast.NewLink(unescape(v.Destination), unescape(v.Title), children...)
}

func (c *converter) image(v *gast.Image) mdast.Node {
	alt := mdast.ToString(c.children(v)...)
	if refType, label, ok := c.referenceForm(v); ok {
		return mdast.NewImageReference(label, refType, alt)
	}
	return mdast.NewImage(unescape(v.Destination), unescape(v.Title), alt)
}

// referenceForm inspects the source around a link's text to tell whether it
// was written as [text](url) or as one of the reference forms [text][label],
// [text][] and [text].
func (c *converter) referenceForm(n gast.Node) (mdast.ReferenceType, string, bool) {
	first, last := firstText(n), lastText(n)
	if first == nil || last == nil || hasLinkOrImage(n) {
		return c.referenceFromEnd(n)
	}
	src := c.source

	open := first.Segment.Start - 1
	for open >= 0 && src[open] != '[' {
		open--
	}
	closeIdx := last.Segment.Stop
	for closeIdx < len(src) && src[closeIdx] != ']' {
		closeIdx++
	}
	if open < 0 || closeIdx >= len(src) {
		return "", "", false
	}
	text := string(src[open+1 : closeIdx])

	after := closeIdx + 1
	if after < len(src) && src[after] == '(' {
		return "", "", false
	}
	if after < len(src) && src[after] == '[' {
		end := bytes.IndexByte(src[after:], ']')
		if end < 0 {
			return "", "", false
		}
		label := string(src[after+1 : after+end])
		if strings.TrimSpace(label) == "" {
			return mdast.ReferenceCollapsed, text, true
		}
		return mdast.ReferenceFull, label, true
	}
	return mdast.ReferenceShortcut, text, true
}

// referenceFromEnd reads the form backwards from where n ends in the source.
// It covers links without text of their own, such as ![][logo] and
// [![alt](i.png)][1].
func (c *converter) referenceFromEnd(n gast.Node) (mdast.ReferenceType, string, bool) {
	stop, ok := c.end(n)
	if !ok {
		return "", "", false
	}
	src := c.source
	for stop > 0 && strings.IndexByte(" \t\r\n*_~", src[stop-1]) >= 0 {
		stop--
	}
	if stop == 0 || src[stop-1] != ']' {
		return "", "", false
	}
	open := matchOpen(src, stop-1)
	if open < 0 {
		return "", "", false
	}
	inner := string(src[open+1 : stop-1])
	if open == 0 || src[open-1] != ']' {
		return mdast.ReferenceShortcut, inner, true
	}
	textOpen := matchOpen(src, open-1)
	if textOpen < 0 {
		return "", "", false
	}
	if strings.TrimSpace(inner) == "" {
		return mdast.ReferenceCollapsed, string(src[textOpen+1 : open-1]), true
	}
	return mdast.ReferenceFull, inner, true
}

// end is the source offset just past n: the start of the text that follows
// it, or the end of the enclosing block.
func (c *converter) end(n gast.Node) (int, bool) {
	if next := n.NextSibling(); next != nil {
		if t, ok := next.(*gast.Text); ok {
			return t.Segment.Start, true
		}
		return 0, false
	}
	p := n.Parent()
	if p == nil {
		return 0, false
	}
	if p.Type() == gast.TypeBlock {
		lines := p.Lines()
		if lines.Len() == 0 {
			return 0, false
		}
		return lines.At(lines.Len() - 1).Stop, true
	}
	return c.end(p)
}

// matchOpen returns the index of the '[' balancing the ']' at closeIdx.
func matchOpen(src []byte, closeIdx int) int {
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch src[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func hasLinkOrImage(n gast.Node) bool {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *gast.Link, *gast.Image:
			return true
		}
		if hasLinkOrImage(child) {
			return true
		}
	}
	return false
}

func firstText(n gast.Node) *gast.Text {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*gast.Text); ok {
			return t
		}
		if t := firstText(child); t != nil {
			return t
		}
	}
	return nil
}

func lastText(n gast.Node) *gast.Text {
	for child := n.LastChild(); child != nil; child = child.PreviousSibling() {
		if t, ok := child.(*gast.Text); ok {
			return t
		}
		if t := lastText(child); t != nil {
			return t
		}
	}
	return nil
}

func (c *converter) directive(variant mdast.Kind, f *directiveFields, children []mdast.Node) *mdast.Directive {
	d := &mdast.Directive{
		Variant:    variant,
		Name:       f.Name,
		Attributes: f.Attrs,
		Raw:        string(f.Raw),
	}
	var label []mdast.Node
	if f.HasLabel && len(f.Label) > 0 {
		label = c.parser.fragment(f.Label, c.refs)
	}
	if variant == mdast.KindContainerDirective {
		d.Label = label
		d.Children = children
	} else {
		d.Children = label
	}
	return d
}

func unescape(b []byte) string {
	b = util.UnescapePunctuations(b)
	b = util.ResolveNumericReferences(b)
	b = util.ResolveEntityNames(b)
	return string(b)
}

// mergeText joins adjacent text nodes produced by goldmark's segment splitting.
func mergeText(nodes []mdast.Node) []mdast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if t, ok := n.(*mdast.Text); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*mdast.Text); ok && !prev.HasHints() {
				prev.Value += t.Value
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
