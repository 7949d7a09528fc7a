package publish

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/render"
)

// SearchDocument is the stored part of an indexed page.
type SearchDocument struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Pathname    string `json:"pathname"`
}

// SearchIndex is an inverted index over the title, description and text of
// the included pages. Terms are case and accent folded.
type SearchIndex struct {
	Fields    []string         `json:"fields"`
	Documents []SearchDocument `json:"documents"`
	// Terms maps a term to the ascending IDs of the documents containing it.
	Terms map[string][]int `json:"terms"`
}

var searchFields = []string{"title", "description", "content"}

// NewSearchIndex indexes the included pages accepted by filter. Document IDs
// follow the pathname order.
func NewSearchIndex(pages []Page, filter Filter) *SearchIndex {
	selected := included(pages, filter)
	slices.SortStableFunc(selected, func(a, b Page) int {
		return strings.Compare(a.Meta.Pathname, b.Meta.Pathname)
	})

	idx := &SearchIndex{
		Fields:    searchFields,
		Documents: make([]SearchDocument, 0, len(selected)),
		Terms:     make(map[string][]int),
	}
	for id, p := range selected {
		m := p.Meta
		idx.Documents = append(idx.Documents, SearchDocument{
			ID:          id,
			Title:       m.Title,
			Description: m.Description,
			Pathname:    m.Pathname,
		})

		var content string
		if p.Tree != nil {
			content = render.PlainText(p.Tree)
		}
		seen := make(map[string]bool)
		for _, text := range []string{m.Title, m.Description, content} {
			for _, term := range Terms(text) {
				if !seen[term] {
					seen[term] = true
					idx.Terms[term] = append(idx.Terms[term], id)
				}
			}
		}
	}
	return idx
}

// Terms splits text into folded search terms. Single characters are dropped.
func Terms(text string) []string {
	words := strings.FieldsFunc(hast.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// Search returns the documents containing every term of query.
func (idx *SearchIndex) Search(query string) []SearchDocument {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil
	}
	var ids []int
	for i, term := range terms {
		postings := idx.Terms[term]
		if i == 0 {
			ids = slices.Clone(postings)
			continue
		}
		ids = slices.DeleteFunc(ids, func(id int) bool {
			_, found := slices.BinarySearch(postings, id)
			return !found
		})
	}
	out := make([]SearchDocument, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.Documents[id])
	}
	return out
}

// JSON serialises the index.
func (idx *SearchIndex) JSON() ([]byte, error) {
	data, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("encode search index: %w", err)
	}
	return data, nil
}
