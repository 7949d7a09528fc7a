package render

import (
	"encoding/json"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// StructuredData is the schema.org JSON-LD record of a document. Field
// order is the serialised key order.
type StructuredData struct {
	Context          string        `json:"@context"`
	Type             string        `json:"@type"`
	MainEntityOfPage webPage       `json:"mainEntityOfPage"`
	DatePublished    string        `json:"datePublished,omitempty"`
	DateModified     string        `json:"dateModified,omitempty"`
	InLanguage       string        `json:"inLanguage,omitempty"`
	Keywords         string        `json:"keywords,omitempty"`
	Author           *person       `json:"author,omitempty"`
	Publisher        *organization `json:"publisher,omitempty"`
	Headline         string        `json:"headline,omitempty"`
	Description      string        `json:"description,omitempty"`
	Image            string        `json:"image,omitempty"`
	SameAs           []string      `json:"sameAs,omitempty"`
}

type webPage struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

type person struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type organization struct {
	Type string       `json:"@type"`
	ID   string       `json:"@id,omitempty"`
	Name string       `json:"name"`
	Logo *imageObject `json:"logo,omitempty"`
}

type imageObject struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

// NewStructuredData describes m as a WebSite or, for articles, an Article.
func NewStructuredData(m *meta.Metadata) StructuredData {
	sd := StructuredData{
		Context:          "https://schema.org",
		Type:             "WebSite",
		MainEntityOfPage: webPage{Type: "WebPage", ID: m.Href},
		DatePublished:    ISO(m.Published),
		DateModified:     ISO(m.Modified),
		InLanguage:       m.Language,
		Keywords:         strings.Join(m.AllKeywords(), ","),
	}
	if m.Author != nil {
		sd.Author = &person{Type: "Person", Name: m.Author.Name, URL: m.Author.Href}
	}
	if p := m.Publisher; p != nil {
		org := &organization{Type: "Organization", Name: p.Name}
		if p.Href != "" {
			org.ID = strings.TrimSuffix(p.Href, "/") + "/#organization"
		}
		if p.Logo != nil {
			org.Logo = &imageObject{Type: "ImageObject", URL: p.Logo.Src}
		}
		sd.Publisher = org
	}

	if !m.IsArticle() {
		sd.SameAs = m.SameAs
		return sd
	}
	sd.Type = "Article"
	sd.Headline = m.Title
	sd.Description = m.Description
	switch {
	case m.Image != nil:
		sd.Image = m.Image.Src
	case m.Publisher != nil && m.Publisher.Logo != nil:
		sd.Image = m.Publisher.Logo.Src
	}
	return sd
}

// JSON serialises the record.
func (sd StructuredData) JSON() (string, error) {
	b, err := json.Marshal(sd)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
