package publish

import (
	"fmt"
	"slices"

	"github.com/gorilla/feeds"
	"github.com/spf13/cast"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
	"git.home.luguber.info/inful/mdsite/internal/render"
)

// FeedLimit caps the number of feed items.
const FeedLimit = 10

// FeedOptions describes the feed channel.
type FeedOptions struct {
	Feed *meta.Feed
	Host string
	Name string
	// Defaults is the generic defaults layer, used for the channel
	// description and author when the feed config has none.
	Defaults map[string]any
	// Filter overrides the type filter of Feed.
	Filter Filter
}

// Feed renders the RSS 2.0 feed of the most recently published pages.
// It fails with a configuration warning when no host is set.
func Feed(pages []Page, opts FeedOptions) ([]byte, error) {
	if opts.Feed == nil {
		return nil, derrors.ConfigurationError("feed is not configured").Build()
	}
	if opts.Host == "" {
		return nil, derrors.ConfigurationError("feed needs a site host").
			WithContext("feed", opts.Feed.Pathname).
			Build()
	}

	filter := opts.Filter
	if filter == nil {
		filter = TypeFilter(opts.Feed.Types)
	}
	var published []Page
	for _, p := range included(pages, filter) {
		if p.Meta.Published != nil {
			published = append(published, p)
		}
	}
	slices.SortStableFunc(published, func(a, b Page) int {
		return b.Meta.Published.Compare(*a.Meta.Published)
	})
	if len(published) > FeedLimit {
		published = published[:FeedLimit]
	}

	channel := &feeds.Feed{
		Title:       firstNonEmpty(opts.Feed.Title, opts.Name),
		Link:        &feeds.Link{Href: opts.Host},
		Description: firstNonEmpty(opts.Feed.Description, cast.ToString(opts.Defaults["description"])),
	}
	if author := firstNonEmpty(opts.Feed.Author, defaultAuthor(opts.Defaults)); author != "" {
		channel.Author = &feeds.Author{Name: author}
	}
	if len(published) > 0 {
		channel.Created = *published[0].Meta.Published
	}

	for _, p := range published {
		item, err := feedItem(p, opts.Host)
		if err != nil {
			return nil, err
		}
		channel.Items = append(channel.Items, item)
	}

	rss, err := channel.ToRss()
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return []byte(rss), nil
}

func feedItem(p Page, host string) (*feeds.Item, error) {
	m := p.Meta
	var excerpt string
	if p.Tree != nil {
		var err error
		excerpt, err = render.Fragment(mdast.WithoutTitle(p.Tree))
		if err != nil {
			return nil, fmt.Errorf("feed excerpt %s: %w", m.Pathname, err)
		}
	}
	url := host + m.Pathname
	item := &feeds.Item{
		Id:          url,
		Title:       m.Title,
		Link:        &feeds.Link{Href: url},
		Description: m.Description,
		Content:     excerpt,
		Created:     *m.Published,
	}
	if m.Modified != nil {
		item.Updated = *m.Modified
	}
	if m.Author != nil && m.Author.Name != "" {
		item.Author = &feeds.Author{Name: m.Author.Name, Email: m.Author.Email}
	}
	return item, nil
}

func defaultAuthor(defaults map[string]any) string {
	switch a := defaults["author"].(type) {
	case string:
		return a
	case nil:
		return ""
	default:
		return cast.ToString(cast.ToStringMap(a)["name"])
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
