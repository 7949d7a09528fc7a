// Package publish derives the site-wide artifacts of a batch build from the
// resolved documents: the RSS feed, the sitemap and the search index.
package publish

import (
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// Page is one resolved document as seen by the derived artifacts.
type Page struct {
	Meta *meta.Metadata
	// Tree is the transformed document tree.
	Tree *mdast.Root
	// Excluded pages are left out of every artifact.
	Excluded bool
}

// Filter selects pages for an artifact.
type Filter func(m *meta.Metadata) bool

// TypeFilter accepts pages whose type is in types. No types accepts all.
func TypeFilter(types []string) Filter {
	if len(types) == 0 {
		return func(*meta.Metadata) bool { return true }
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(m *meta.Metadata) bool { return set[m.Type] }
}

func included(pages []Page, filter Filter) []Page {
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		if p.Excluded || p.Meta == nil {
			continue
		}
		if filter != nil && !filter(p.Meta) {
			continue
		}
		out = append(out, p)
	}
	return out
}
