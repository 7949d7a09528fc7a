// Package refs renumbers and deduplicates reference-style links.
package refs

import (
	"sort"
	"strconv"

	"git.home.luguber.info/inful/mdsite/internal/mdast"
)

type survivor struct {
	identifier string
	label      string
	url        string
	title      string
	numeric    int
}

// Normalize rewrites the references of root in place.
//
// Usages are visited in document order. Usages whose definitions share a
// destination URL collapse onto one definition. Numeric identifiers are
// renumbered from 1 in order of first use; other identifiers are kept.
// All definitions are then removed and the survivors appended to root,
// numeric identifiers first in ascending order, then the rest in
// first-seen order. Usages without a definition are left alone.
//
// Running Normalize on its own output changes nothing.
func Normalize(root *mdast.Root) {
	defs := mdast.Definitions(root)

	var (
		survivors []*survivor
		byURL     = make(map[string]*survivor)
		next      = 1
	)

	assign := func(identifier string) *survivor {
		def, ok := defs[identifier]
		if !ok {
			return nil
		}
		if s, ok := byURL[def.URL]; ok {
			return s
		}
		s := &survivor{identifier: identifier, label: def.Label, url: def.URL, title: def.Title, numeric: -1}
		if isNumeric(identifier) {
			s.numeric = next
			s.identifier = strconv.Itoa(next)
			s.label = s.identifier
			next++
		}
		byURL[def.URL] = s
		survivors = append(survivors, s)
		return s
	}

	mdast.Walk(root, func(n mdast.Node, _ int, _ mdast.Parent) mdast.WalkStatus {
		switch ref := n.(type) {
		case *mdast.LinkReference:
			if s := assign(ref.Identifier); s != nil {
				ref.Identifier, ref.Label, ref.ReferenceType = s.identifier, s.label, mdast.ReferenceFull
			}
		case *mdast.ImageReference:
			if s := assign(ref.Identifier); s != nil {
				ref.Identifier, ref.Label, ref.ReferenceType = s.identifier, s.label, mdast.ReferenceFull
			}
		}
		return mdast.WalkContinue
	})

	removeDefinitions(root)

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		switch {
		case a.numeric >= 0 && b.numeric >= 0:
			return a.numeric < b.numeric
		case a.numeric >= 0:
			return true
		default:
			return false
		}
	})
	for _, s := range survivors {
		root.Children = append(root.Children, &mdast.Definition{
			Identifier: s.identifier,
			Label:      s.label,
			URL:        s.url,
			Title:      s.title,
		})
	}
}

func removeDefinitions(n mdast.Node) {
	p, ok := n.(mdast.Parent)
	if !ok {
		return
	}
	kids := p.ChildNodes()
	kept := kids[:0]
	for _, c := range kids {
		if _, isDef := c.(*mdast.Definition); isDef {
			continue
		}
		removeDefinitions(c)
		kept = append(kept, c)
	}
	p.SetChildNodes(kept)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
