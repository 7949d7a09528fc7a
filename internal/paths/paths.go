// Package paths maps source files to site pathnames and rewrites relative
// links between documents onto those pathnames.
package paths

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
)

var (
	indexSuffix = regexp.MustCompile(`(?i)(?:^|/)(?:index|readme)\.(?:md|markdown)$`)
	markupExt   = regexp.MustCompile(`(?i)\.(?:md|markdown)$`)
	schemeRE    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// IsMarkup reports whether p names a Markdown source.
func IsMarkup(p string) bool {
	return markupExt.MatchString(p)
}

// IsIndex reports whether p is an index or README document.
func IsIndex(p string) bool {
	return indexSuffix.MatchString(p)
}

// ResolvePathname maps a source path to its canonical site pathname.
//
//	articles/post/index.md -> /articles/post
//	articles/post.md       -> /articles/post
//	README.md              -> /
//	./another.md           -> ./another   (relative paths stay relative)
//
// Resolving an already resolved pathname returns it unchanged.
func ResolvePathname(sourcePath string) string {
	p := sourcePath
	if loc := indexSuffix.FindStringIndex(p); loc != nil {
		// Keep the separator so "a/index.md" becomes "a/".
		if p[loc[0]] == '/' {
			loc[0]++
		}
		p = p[:loc[0]]
	} else {
		p = markupExt.ReplaceAllString(p, "")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	if isFloating(p) {
		p = "/" + p
	}
	return p
}

// isFloating reports whether p is neither explicitly relative nor absolute.
func isFloating(p string) bool {
	return !strings.HasPrefix(p, ".") && !strings.HasPrefix(p, "/")
}

// IsExternal reports whether href leaves the site's path space: URLs with a
// scheme (including mailto:), protocol-relative URLs, site-absolute paths and
// pure fragment or query references.
func IsExternal(href string) bool {
	switch {
	case href == "":
		return true
	case strings.HasPrefix(href, "#"), strings.HasPrefix(href, "?"):
		return true
	case strings.HasPrefix(href, "/"):
		return true
	case schemeRE.MatchString(href):
		return true
	}
	return false
}

// ShouldRewrite reports whether href points at an in-repository document or
// at an asset relative to the current document.
func ShouldRewrite(href string) bool {
	if IsExternal(href) {
		return false
	}
	p, _ := splitSuffix(href)
	if IsMarkup(p) {
		return true
	}
	return strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

// splitSuffix separates the path portion of href from its query/fragment.
func splitSuffix(href string) (string, string) {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i], href[i:]
	}
	return href, ""
}

// ResolveTargetPathname rewrites href, found in the document at
// fromSourcePath, into the site pathname of its target. The query and
// fragment suffix is carried over unchanged. Hrefs for which IsExternal is
// true are returned as-is.
//
// An index document resolves relative paths from its own pathname, any other
// document from its parent, matching how sibling files relate on disk.
//
// A href that cannot be parsed yields a warning classified as
// errors.ErrMalformedLink together with the unmodified href.
func ResolveTargetPathname(fromSourcePath, href string) (string, error) {
	if IsExternal(href) {
		return href, nil
	}
	if _, err := url.Parse(href); err != nil {
		return href, errors.MalformedLinkError(href, err).
			WithContext("source", fromSourcePath).
			Build()
	}

	target, suffix := splitSuffix(href)
	if target == "" {
		return href, nil
	}

	base := ResolvePathname(fromSourcePath)
	if !IsIndex(fromSourcePath) {
		base = path.Join(base, "..")
	}

	resolved := ResolvePathname(target)
	if !strings.HasPrefix(resolved, "/") {
		resolved = path.Join(base, resolved)
	}
	return path.Clean(resolved) + suffix, nil
}
