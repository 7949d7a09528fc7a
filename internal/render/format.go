package render

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/hast"
)

const indentUnit = "  "

// Phrasing elements stay on the line of their surrounding text.
var phrasing = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "br": true,
	"button": true, "cite": true, "code": true, "data": true, "del": true,
	"dfn": true, "em": true, "i": true, "input": true, "ins": true, "kbd": true,
	"label": true, "mark": true, "meter": true, "output": true, "progress": true,
	"q": true, "s": true, "samp": true, "select": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "time": true,
	"u": true, "var": true, "wbr": true,
}

// Elements whose content is whitespace sensitive.
var preformatted = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
}

// Indent inserts newlines and indentation between block-level children so
// the serialised document is readable. Text content is left alone.
func Indent(n *html.Node) {
	indent(n, 0)
}

func indent(n *html.Node, level int) {
	if n.Type == html.ElementNode && preformatted[n.Data] {
		return
	}
	head := n.Type == html.ElementNode && n.Data == "head"

	padded := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pads(c, head) {
			padded = true
			break
		}
	}

	for _, c := range hast.Children(n) {
		if padded && isBlank(c) {
			n.RemoveChild(c)
			continue
		}
		if c.Type == html.ElementNode {
			indent(c, level+1)
		}
		if padded && pads(c, head) {
			n.InsertBefore(hast.Text("\n"+strings.Repeat(indentUnit, level+1)), c)
		}
	}
	if padded {
		n.AppendChild(hast.Text("\n" + strings.Repeat(indentUnit, level)))
	}
}

func pads(n *html.Node, head bool) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return head || n.Data == "script" || !phrasing[n.Data]
}

func isBlank(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}
