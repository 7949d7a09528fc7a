package publish

import (
	"slices"
	"strings"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
)

// Sitemap lists the absolute URL of every included page, sorted, one per
// line. It fails with a configuration warning when no host is set.
func Sitemap(pages []Page, host string) ([]byte, error) {
	if host == "" {
		return nil, derrors.ConfigurationError("sitemap needs a site host").Build()
	}
	urls := make([]string, 0, len(pages))
	for _, p := range included(pages, nil) {
		urls = append(urls, host+p.Meta.Pathname)
	}
	slices.Sort(urls)
	urls = slices.Compact(urls)

	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
