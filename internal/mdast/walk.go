package mdast

import (
	"reflect"
	"slices"
	"strings"
)

// WalkStatus controls traversal.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
	WalkStop
)

// Visitor is called for every node in pre-order. index is the node's position
// in parent's children; parent is nil for the root.
type Visitor func(n Node, index int, parent Parent) WalkStatus

// Walk visits root and its descendants in document order.
//
// The children slice is re-read after every visit, so a visitor may replace
// the node at its own index. Nodes inserted before index are not revisited.
func Walk(root Node, visit Visitor) {
	walk(root, -1, nil, visit)
}

func walk(n Node, index int, parent Parent, visit Visitor) WalkStatus {
	switch visit(n, index, parent) {
	case WalkStop:
		return WalkStop
	case WalkSkipChildren:
		return WalkContinue
	}
	if parent != nil {
		// The visitor may have replaced n.
		if kids := parent.ChildNodes(); index < len(kids) {
			n = kids[index]
		}
	}
	p, ok := n.(Parent)
	if !ok {
		return WalkContinue
	}
	for i := 0; i < len(p.ChildNodes()); i++ {
		if walk(p.ChildNodes()[i], i, p, visit) == WalkStop {
			return WalkStop
		}
	}
	return WalkContinue
}

// ToString returns the plain text content of the given nodes.
func ToString(nodes ...Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeString(&b, n)
	}
	return b.String()
}

func writeString(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Text:
		b.WriteString(v.Value)
	case *InlineCode:
		b.WriteString(v.Value)
	case *Code:
		b.WriteString(v.Value)
	case *HTML:
		b.WriteString(v.Value)
	case *Image:
		b.WriteString(v.Alt)
	case *ImageReference:
		b.WriteString(v.Alt)
	case *Break:
		b.WriteString("\n")
	case Parent:
		for _, c := range v.ChildNodes() {
			writeString(b, c)
		}
	}
}

// NormalizeIdentifier folds a reference label the way CommonMark matches
// labels: case-insensitive with runs of whitespace collapsed.
func NormalizeIdentifier(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// FirstHeading returns the first heading of the given depth, or nil.
func FirstHeading(root Node, depth int) *Heading {
	var found *Heading
	Walk(root, func(n Node, _ int, _ Parent) WalkStatus {
		if h, ok := n.(*Heading); ok && h.Depth == depth {
			found = h
			return WalkStop
		}
		return WalkContinue
	})
	return found
}

// Title returns the text of the first depth-1 heading.
func Title(root Node) string {
	if h := FirstHeading(root, 1); h != nil {
		return strings.TrimSpace(ToString(h.Children...))
	}
	return ""
}

// WithoutTitle returns root without the heading Title reads its text from,
// wherever it is nested. The containers on the way to that heading are
// copied; root itself is not modified.
func WithoutTitle(root *Root) *Root {
	h := FirstHeading(root, 1)
	if h == nil {
		return &Root{Container: Container{Children: slices.Clone(root.Children)}}
	}
	return without(root, h).(*Root)
}

func without(n Node, target Node) Node {
	p, ok := n.(Parent)
	if !ok {
		return n
	}
	kids := p.ChildNodes()
	for i, c := range kids {
		var next []Node
		if c == target {
			next = slices.Delete(slices.Clone(kids), i, i+1)
		} else if r := without(c, target); r != c {
			next = slices.Clone(kids)
			next[i] = r
		} else {
			continue
		}
		cp := shallowCopy(p)
		cp.SetChildNodes(next)
		return cp
	}
	return n
}

func shallowCopy(p Parent) Parent {
	v := reflect.ValueOf(p).Elem()
	cp := reflect.New(v.Type())
	cp.Elem().Set(v)
	return cp.Interface().(Parent)
}

// Definitions indexes the definitions of root by identifier. The first
// definition of an identifier wins.
func Definitions(root Node) map[string]*Definition {
	defs := make(map[string]*Definition)
	Walk(root, func(n Node, _ int, _ Parent) WalkStatus {
		if d, ok := n.(*Definition); ok {
			if _, exists := defs[d.Identifier]; !exists {
				defs[d.Identifier] = d
			}
		}
		return WalkContinue
	})
	return defs
}
