package hast

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Ünïcode" becomes "unicode").
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Slug turns heading text into an id: folded, spaces become dashes and
// punctuation other than '-' and '_' is dropped.
func Slug(s string) string {
	var b strings.Builder
	for _, r := range Fold(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Slugger hands out unique slugs within one document by suffixing repeats
// with -1, -2 and so on.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns a slug for s that has not been returned before.
func (g *Slugger) Slug(s string) string {
	base := Slug(s)
	slug := base
	n := g.seen[base]
	for {
		if _, taken := g.seen[slug]; !taken {
			break
		}
		n++
		slug = base + "-" + strconv.Itoa(n)
	}
	if slug != base {
		g.seen[base] = n
	}
	g.seen[slug] = 0
	return slug
}

// Reserve marks an existing id as taken.
func (g *Slugger) Reserve(id string) {
	if _, ok := g.seen[id]; !ok {
		g.seen[id] = 0
	}
}
