// Package meta resolves the metadata record of a document.
//
// Resolution happens in two phases. The cascade works on loosely typed
// layers (site settings, per-type defaults, front matter) merged as plain
// maps. Decode then turns the merged layer into the fixed-shape Metadata
// record consumed by rendering, feeds, the sitemap and structured data.
package meta

import "time"

// GenericType is the document type every other type inherits defaults from.
const GenericType = "page"

// Image is a picture reference. Logos additionally carry a link target.
type Image struct {
	Src    string
	Alt    string
	Href   string
	Width  int
	Height int
}

// Author is the person credited for a page. Twitter is the handle used for
// the twitter:site and twitter:creator tags.
type Author struct {
	Name    string
	Href    string
	Email   string
	Twitter string
}

// Publisher is the organisation named in structured data, with its logo.
type Publisher struct {
	Name string
	Href string
	Logo *Image
}

// Feed describes the site's syndication feed. A nil *Feed disables it.
type Feed struct {
	Pathname    string
	Title       string
	Description string
	Author      string
	// Types limits the feed to documents of these types; empty means all.
	Types []string
}

// Metadata is the resolved record of one document. Every field exists on
// every document; absent values are zero values or nil pointers.
type Metadata struct {
	Type     string
	Host     string
	Pathname string
	Href     string
	Name     string
	Language string
	// Manifest is the web manifest href; empty when disabled.
	Manifest string
	Feed     *Feed

	Title       string
	Description string
	Author      *Author
	Publisher   *Publisher
	Published   *time.Time
	Modified    *time.Time
	Draft       bool
	Tags        []string
	Keywords    []string
	Image       *Image
	Logo        *Image
	Icon        *Image
	Prefetch    string
	SameAs      []string
	Layout      string

	// Stylesheets and Scripts are the type-level assets from the defaults
	// cascade. The pipeline replaces them with bundle hrefs when bundling
	// is enabled.
	Stylesheets        []string
	Scripts            []string
	BundledStylesheets []string
	BundledScripts     []string

	// PageStylesheets and PageScripts come from the document's own front
	// matter. They are never bundled.
	PageStylesheets []string
	PageScripts     []string

	// Extra holds front matter keys without a dedicated field.
	Extra map[string]any
}

// URL returns the absolute URL of the document, or the bare pathname when
// no host is configured.
func (m *Metadata) URL() string {
	return m.Host + m.Pathname
}

// HeadStylesheets returns the stylesheet hrefs for the document head.
func (m *Metadata) HeadStylesheets() []string {
	out := m.BundledStylesheets
	if out == nil {
		out = m.Stylesheets
	}
	return append(append([]string(nil), out...), m.PageStylesheets...)
}

// BodyScripts returns the script hrefs emitted at the end of the body.
func (m *Metadata) BodyScripts() []string {
	out := m.BundledScripts
	if out == nil {
		out = m.Scripts
	}
	return append(append([]string(nil), out...), m.PageScripts...)
}

// AllKeywords returns the explicit keywords, falling back to the tags.
func (m *Metadata) AllKeywords() []string {
	if len(m.Keywords) > 0 {
		return m.Keywords
	}
	return m.Tags
}

// IsArticle reports whether the document renders as an article.
func (m *Metadata) IsArticle() bool {
	return m.Type == "article"
}
