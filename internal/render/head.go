package render

import (
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

var iconTypes = map[string]string{
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// ISO formats a date the way feeds and structured data expect it.
func ISO(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// MetaTags returns the <meta> elements describing the document.
func MetaTags(m *meta.Metadata) []*html.Node {
	var tags []*html.Node
	add := func(kv ...string) {
		tags = append(tags, hast.El("meta", hast.Attrs(kv...)))
	}

	ogType := "website"
	if m.IsArticle() {
		ogType = "article"
	}
	add("property", "og:type", "content", ogType)

	if m.Draft {
		add("name", "robots", "content", "noindex")
	}
	if m.Description != "" {
		add("name", "description", "property", "og:description", "content", m.Description)
	}
	if m.Name != "" {
		add("property", "og:site_name", "content", m.Name)
	}
	if m.Pathname != "" {
		add("property", "og:url", "content", m.URL())
	}
	if m.Author != nil && m.Author.Name != "" {
		add("name", "author", "content", m.Author.Name)
	}
	if m.Published != nil {
		add("property", "article:published_time", "content", ISO(m.Published))
	}
	if m.Modified != nil {
		add("property", "article:modified_time", "content", ISO(m.Modified))
	}

	if m.Author != nil && m.Author.Twitter != "" {
		add("name", "twitter:title", "property", "og:title", "content", m.Title)
		add("name", "twitter:description", "content", m.Description)
		add("name", "twitter:card", "content", "summary_large_image")
		if m.Image != nil {
			add("name", "twitter:image", "property", "og:image", "content", absolute(m.Host, m.Image.Src))
		}
		add("name", "twitter:site", "content", m.Author.Twitter)
		add("name", "twitter:creator", "content", m.Author.Twitter)
		add("name", "twitter:image:alt", "content", m.Title)
	}
	return tags
}

// LinkTags returns the <link> elements of the document head.
func LinkTags(m *meta.Metadata) []*html.Node {
	var tags []*html.Node
	add := func(kv ...string) {
		tags = append(tags, hast.El("link", hast.Attrs(kv...)))
	}

	add("rel", "icon", "href", "/favicon.ico", "sizes", "any")
	add("rel", "apple-touch-icon", "href", "/apple-touch-icon.png")

	if m.Manifest != "" {
		add("rel", "manifest", "href", m.Manifest)
	}
	if m.Host != "" && m.Href != "" {
		add("rel", "canonical", "href", m.Href)
	}
	for _, href := range m.HeadStylesheets() {
		add("rel", "stylesheet", "href", href)
	}
	if m.Icon != nil {
		add("rel", "icon", "href", m.Icon.Src, "type", iconTypes[strings.ToLower(path.Ext(m.Icon.Src))])
	}
	if m.Prefetch != "" {
		add("rel", "prefetch", "href", m.Prefetch)
	}
	if m.Feed != nil {
		add("rel", "alternate", "type", "application/rss+xml", "href", m.Host+m.Feed.Pathname, "title", m.Feed.Title)
	}
	return tags
}

func absolute(host, ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	return host + ref
}
