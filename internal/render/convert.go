package render

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
)

// Convert turns a Markdown tree into HTML nodes. Render hints set on a
// node replace its tag, attributes or children. Reference usages resolve
// through the definitions of root; unresolved ones are written back as
// text.
func Convert(root *mdast.Root) []*html.Node {
	c := &converter{defs: mdast.Definitions(root)}
	return c.all(root.Children, false)
}

type converter struct {
	defs map[string]*mdast.Definition
}

func (c *converter) all(nodes []mdast.Node, tight bool) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if p, ok := n.(*mdast.Paragraph); ok && tight && !p.HasHints() {
			out = append(out, c.all(p.Children, false)...)
			continue
		}
		out = append(out, c.node(n)...)
	}
	return out
}

func (c *converter) node(n mdast.Node) []*html.Node {
	out := c.convert(n)
	if !n.HasHints() || len(out) != 1 {
		return out
	}
	return []*html.Node{applyHints(out[0], n.Hints())}
}

func (c *converter) children(n mdast.Node) []*html.Node {
	p, ok := n.(mdast.Parent)
	if !ok {
		return nil
	}
	return c.all(p.ChildNodes(), false)
}

func (c *converter) convert(n mdast.Node) []*html.Node {
	switch v := n.(type) {
	case *mdast.Root:
		return c.children(v)
	case *mdast.Paragraph:
		return el("p", nil, c.children(v)...)
	case *mdast.Heading:
		return el("h"+strconv.Itoa(clamp(v.Depth, 1, 6)), nil, c.children(v)...)
	case *mdast.ThematicBreak:
		return el("hr", nil)
	case *mdast.Blockquote:
		return el("blockquote", nil, c.children(v)...)
	case *mdast.List:
		return c.list(v)
	case *mdast.ListItem:
		return c.listItem(v, false)
	case *mdast.Code:
		return c.code(v)
	case *mdast.HTML:
		return []*html.Node{hast.Raw(v.Value)}
	case *mdast.Definition:
		return nil
	case *mdast.Text:
		return []*html.Node{hast.Text(v.Value)}
	case *mdast.Emphasis:
		return el("em", nil, c.children(v)...)
	case *mdast.Strong:
		return el("strong", nil, c.children(v)...)
	case *mdast.Delete:
		return el("del", nil, c.children(v)...)
	case *mdast.InlineCode:
		return el("code", nil, hast.Text(v.Value))
	case *mdast.Break:
		return []*html.Node{hast.El("br", nil), hast.Text("\n")}
	case *mdast.Link:
		return el("a", hast.Attrs("href", v.URL, "title", v.Title), c.children(v)...)
	case *mdast.Image:
		return el("img", imageAttrs(v.URL, v.Alt, v.Title))
	case *mdast.LinkReference:
		if def, ok := c.defs[v.Identifier]; ok {
			return el("a", hast.Attrs("href", def.URL, "title", def.Title), c.children(v)...)
		}
		return c.revert("[", v.Label, v.ReferenceType, c.children(v))
	case *mdast.ImageReference:
		if def, ok := c.defs[v.Identifier]; ok {
			return el("img", imageAttrs(def.URL, v.Alt, def.Title))
		}
		return c.revert("![", v.Label, v.ReferenceType, []*html.Node{hast.Text(v.Alt)})
	case *mdast.Table:
		return c.table(v)
	case *mdast.TableRow:
		return c.row(v, nil, "td")
	case *mdast.TableCell:
		return el("td", nil, c.children(v)...)
	case *mdast.Directive:
		return c.directive(v)
	}
	return nil
}

func el(tag string, attrs []html.Attribute, children ...*html.Node) []*html.Node {
	return []*html.Node{hast.El(tag, attrs, children...)}
}

func imageAttrs(src, alt, title string) []html.Attribute {
	attrs := []html.Attribute{{Key: "src", Val: src}, {Key: "alt", Val: alt}}
	if title != "" {
		attrs = append(attrs, html.Attribute{Key: "title", Val: title})
	}
	return attrs
}

func (c *converter) list(v *mdast.List) []*html.Node {
	tag := "ul"
	var attrs []html.Attribute
	if v.Ordered {
		tag = "ol"
		if v.Start != 1 {
			attrs = append(attrs, html.Attribute{Key: "start", Val: strconv.Itoa(v.Start)})
		}
	}
	loose := v.Spread
	for _, item := range v.Children {
		if li, ok := item.(*mdast.ListItem); ok && li.Spread {
			loose = true
		}
	}
	var items []*html.Node
	for _, item := range v.Children {
		if li, ok := item.(*mdast.ListItem); ok {
			items = append(items, c.applied(li, c.listItem(li, !loose))...)
			continue
		}
		items = append(items, c.node(item)...)
	}
	return el(tag, attrs, items...)
}

func (c *converter) applied(n mdast.Node, out []*html.Node) []*html.Node {
	if !n.HasHints() || len(out) != 1 {
		return out
	}
	return []*html.Node{applyHints(out[0], n.Hints())}
}

func (c *converter) listItem(v *mdast.ListItem, tight bool) []*html.Node {
	children := c.all(v.Children, tight)
	var attrs []html.Attribute
	if v.Checked != nil {
		attrs = append(attrs, html.Attribute{Key: "class", Val: "task-list-item"})
		box := hast.El("input", hast.Attrs("type", "checkbox", "disabled", "disabled"))
		if *v.Checked {
			box.Attr = append(box.Attr, html.Attribute{Key: "checked", Val: "checked"})
		}
		children = append([]*html.Node{box, hast.Text(" ")}, children...)
	}
	return el("li", attrs, children...)
}

func (c *converter) code(v *mdast.Code) []*html.Node {
	var attrs []html.Attribute
	if v.Lang != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: "language-" + v.Lang})
	}
	value := v.Value
	if value != "" {
		value += "\n"
	}
	return el("pre", nil, hast.El("code", attrs, hast.Text(value)))
}

func (c *converter) table(v *mdast.Table) []*html.Node {
	var rows []*mdast.TableRow
	for _, r := range v.Children {
		if row, ok := r.(*mdast.TableRow); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return el("table", nil)
	}
	head := hast.El("thead", nil, c.applied(rows[0], c.row(rows[0], v.Align, "th"))...)
	table := hast.El("table", nil, head)
	if len(rows) > 1 {
		body := hast.El("tbody", nil)
		for _, r := range rows[1:] {
			hast.Append(body, c.applied(r, c.row(r, v.Align, "td"))...)
		}
		hast.Append(table, body)
	}
	return []*html.Node{table}
}

func (c *converter) row(r *mdast.TableRow, align []mdast.Align, cellTag string) []*html.Node {
	var cells []*html.Node
	for i, cell := range r.Children {
		var attrs []html.Attribute
		if i < len(align) && align[i] != mdast.AlignNone {
			attrs = append(attrs, html.Attribute{Key: "align", Val: string(align[i])})
		}
		cells = append(cells, c.applied(cell, el(cellTag, attrs, c.children(cell)...))...)
	}
	return el("tr", nil, cells...)
}

func (c *converter) directive(d *mdast.Directive) []*html.Node {
	tag := "div"
	if d.Variant == mdast.KindTextDirective {
		tag = "span"
	}
	return el(tag, append([]html.Attribute(nil), d.Attributes...), c.children(d)...)
}

// revert writes an unresolved reference back in its source form.
func (c *converter) revert(open, label string, refType mdast.ReferenceType, content []*html.Node) []*html.Node {
	out := append([]*html.Node{hast.Text(open)}, content...)
	switch refType {
	case mdast.ReferenceFull:
		out = append(out, hast.Text("]["+label+"]"))
	case mdast.ReferenceCollapsed:
		out = append(out, hast.Text("][]"))
	default:
		out = append(out, hast.Text("]"))
	}
	return out
}

// applyHints applies render hints to a converted element. Hint children
// are cloned so a tree can be rendered more than once.
func applyHints(n *html.Node, h *mdast.Hints) *html.Node {
	if n.Type != html.ElementNode {
		return n
	}
	if h.Name != "" {
		n = hast.El(h.Name, n.Attr, hast.Children(n)...)
	}
	if h.Properties != nil {
		n.Attr = append([]html.Attribute(nil), h.Properties...)
	}
	if h.Children != nil {
		for _, c := range hast.Children(n) {
			n.RemoveChild(c)
		}
		for _, c := range h.Children {
			n.AppendChild(hast.Clone(c))
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// PlainText returns the text of a Markdown tree with blocks separated by
// newlines.
func PlainText(root *mdast.Root) string {
	var b strings.Builder
	var walk func(nodes []mdast.Node)
	walk = func(nodes []mdast.Node) {
		for _, n := range nodes {
			switch v := n.(type) {
			case *mdast.Paragraph, *mdast.Heading, *mdast.TableCell:
				b.WriteString(strings.TrimSpace(mdast.ToString(v)))
				b.WriteByte('\n')
			case *mdast.Code:
				b.WriteString(v.Value)
				b.WriteByte('\n')
			case *mdast.HTML, *mdast.Definition:
			case mdast.Parent:
				walk(v.ChildNodes())
			}
		}
	}
	walk(root.Children)
	return strings.TrimSpace(b.String())
}
