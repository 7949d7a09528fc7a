package meta

import (
	"maps"

	"git.home.luguber.info/inful/mdsite/internal/mdast"
)

// Defaults maps a document type to its defaults layer.
type Defaults map[string]map[string]any

// Site holds the site-wide settings that seed every document's record.
type Site struct {
	Host     string
	Name     string
	Language string
	Manifest string
	Feed     *Feed
}

// Input is everything Build needs to resolve one document.
type Input struct {
	Type     string
	Pathname string
	Site     Site
	Defaults Defaults
	// Matter is the parsed front matter. It is not modified.
	Matter map[string]any
	// Tree supplies the title fallback when front matter has none.
	Tree *mdast.Root
}

// SelectDefaults returns the defaults layer for typ. Generic and unknown
// types get the generic defaults alone; other types get the generic
// defaults overlaid by their own.
func SelectDefaults(defaults Defaults, typ string) map[string]any {
	out := make(map[string]any)
	maps.Copy(out, defaults[GenericType])
	if typ == "" || typ == GenericType {
		return out
	}
	specific, ok := defaults[typ]
	if !ok {
		return out
	}
	maps.Copy(out, specific)
	return out
}

// Build resolves the metadata of one document.
//
// Layers are merged in order, later keys winning: site record, type
// defaults, coerced front matter, page-local assets. The returned warnings
// describe front matter values that could not be coerced; the affected
// fields are left unset.
func Build(in Input) (*Metadata, []error) {
	layer := map[string]any{
		"type":     in.Type,
		"host":     in.Site.Host,
		"pathname": in.Pathname,
		"href":     in.Site.Host + in.Pathname,
		"name":     in.Site.Name,
		"language": in.Site.Language,
		"manifest": in.Site.Manifest,
		"feed":     in.Site.Feed,
	}
	maps.Copy(layer, SelectDefaults(in.Defaults, in.Type))

	matter, warnings := CoerceFrontMatter(in.Matter, in.Pathname)
	matter, styles, scripts := ExtractPageAssets(matter, in.Pathname)
	maps.Copy(layer, matter)

	m, decodeWarnings := Decode(layer)
	warnings = append(warnings, decodeWarnings...)

	m.PageStylesheets = styles
	m.PageScripts = scripts
	if m.Title == "" && in.Tree != nil {
		m.Title = mdast.Title(in.Tree)
	}
	return m, warnings
}
