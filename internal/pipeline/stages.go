package pipeline

import (
	"git.home.luguber.info/inful/mdsite/internal/directives"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/paths"
	"git.home.luguber.info/inful/mdsite/internal/refs"
)

// Stage transforms the Markdown tree of a document after its metadata has
// been resolved. Stages run in order; a returned tree replaces the current
// one and nil keeps it.
type Stage interface {
	Name() string
	Apply(tree *mdast.Root, doc *Document) (*mdast.Root, error)
}

// DefaultStages returns the built-in tree stages.
func DefaultStages(table directives.Table) []Stage {
	return []Stage{
		Directives{Table: table},
		RewriteLinks{},
		NormalizeReferences{},
	}
}

// Directives expands directive nodes through Table.
type Directives struct {
	Table directives.Table
}

func (Directives) Name() string { return "directives" }

func (s Directives) Apply(tree *mdast.Root, doc *Document) (*mdast.Root, error) {
	err := directives.Expand(tree, s.Table, directives.Document{SourcePath: doc.SourcePath, Meta: doc.Meta})
	return tree, err
}

// RewriteLinks points relative links, images and definitions at the site
// pathname of their target. Malformed hrefs are kept and reported as
// document warnings.
type RewriteLinks struct{}

func (RewriteLinks) Name() string { return "rewrite-links" }

func (RewriteLinks) Apply(tree *mdast.Root, doc *Document) (*mdast.Root, error) {
	rewrite := func(href string) string {
		if !paths.ShouldRewrite(href) {
			return href
		}
		out, err := paths.ResolveTargetPathname(doc.SourcePath, href)
		doc.warn(err)
		return out
	}
	mdast.Walk(tree, func(n mdast.Node, _ int, _ mdast.Parent) mdast.WalkStatus {
		switch v := n.(type) {
		case *mdast.Link:
			v.URL = rewrite(v.URL)
		case *mdast.Image:
			v.URL = rewrite(v.URL)
		case *mdast.Definition:
			v.URL = rewrite(v.URL)
		}
		return mdast.WalkContinue
	})
	return tree, nil
}

// NormalizeReferences renumbers and deduplicates reference definitions.
type NormalizeReferences struct{}

func (NormalizeReferences) Name() string { return "normalize-references" }

func (NormalizeReferences) Apply(tree *mdast.Root, _ *Document) (*mdast.Root, error) {
	refs.Normalize(tree)
	return tree, nil
}
