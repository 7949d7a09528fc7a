package meta

import (
	"fmt"
	"maps"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/spf13/cast"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/paths"
)

var tagSeparator = regexp.MustCompile(`[ ,]+`)

// CoerceFrontMatter normalises the loosely typed front matter of a document
// at pathname. It returns a new map; matter is not modified.
//
//   - a scalar tags value splits on commas and spaces
//   - a scalar image value becomes {src: value}
//   - published and modified become time.Time values
//   - relative image, logo and icon sources are joined against pathname
//
// Dates that cannot be parsed are dropped with a warning.
func CoerceFrontMatter(matter map[string]any, pathname string) (map[string]any, []error) {
	out := make(map[string]any, len(matter))
	var warnings []error

	for key, value := range matter {
		switch key {
		case "tags":
			if s, ok := value.(string); ok {
				value = splitTags(s)
			}
		case "image", "logo", "icon":
			value = resolveImage(value, pathname)
		case "published", "modified":
			t, err := parseTime(value)
			if err != nil {
				warnings = append(warnings, fieldWarning(key, err))
				continue
			}
			value = t
		}
		out[key] = value
	}
	return out, warnings
}

// ExtractPageAssets removes stylesheets and scripts from matter and returns
// them joined against pathname. The returned map is a copy.
func ExtractPageAssets(matter map[string]any, pathname string) (rest map[string]any, stylesheets, scripts []string) {
	rest = maps.Clone(matter)
	if rest == nil {
		rest = map[string]any{}
	}
	if v, ok := rest["stylesheets"]; ok {
		stylesheets = joinAll(stringList(v), pathname)
		delete(rest, "stylesheets")
	}
	if v, ok := rest["scripts"]; ok {
		scripts = joinAll(stringList(v), pathname)
		delete(rest, "scripts")
	}
	return rest, stylesheets, scripts
}

// Decode converts a merged layer into a Metadata record. Keys without a
// dedicated field end up in Extra. Values of the wrong shape are reported
// and leave their field unset.
func Decode(layer map[string]any) (*Metadata, []error) {
	m := &Metadata{}
	var warnings []error
	warn := func(key string, err error) {
		warnings = append(warnings, fieldWarning(key, err))
	}

	// Sorted keys keep warning order stable.
	keys := make([]string, 0, len(layer))
	for k := range layer {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := layer[key]
		if value == nil {
			continue
		}
		var err error
		switch key {
		case "type":
			m.Type, err = cast.ToStringE(value)
		case "host":
			m.Host, err = cast.ToStringE(value)
		case "pathname":
			m.Pathname, err = cast.ToStringE(value)
		case "href":
			m.Href, err = cast.ToStringE(value)
		case "name":
			m.Name, err = cast.ToStringE(value)
		case "language", "lang":
			m.Language, err = cast.ToStringE(value)
		case "manifest":
			m.Manifest, err = decodeManifest(value)
		case "feed":
			m.Feed, err = decodeFeed(value)
		case "title":
			m.Title, err = cast.ToStringE(value)
		case "description":
			m.Description, err = cast.ToStringE(value)
		case "author":
			m.Author, err = decodeAuthor(value)
		case "publisher":
			m.Publisher, err = decodePublisher(value)
		case "published":
			m.Published, err = parseTime(value)
		case "modified":
			m.Modified, err = parseTime(value)
		case "draft":
			m.Draft, err = cast.ToBoolE(value)
		case "tags":
			m.Tags = stringList(value)
		case "keywords":
			m.Keywords = stringList(value)
		case "image":
			m.Image, err = decodeImage(value)
		case "logo":
			m.Logo, err = decodeImage(value)
		case "icon":
			m.Icon, err = decodeImage(value)
		case "prefetch":
			m.Prefetch, err = cast.ToStringE(value)
		case "sameAs":
			m.SameAs = stringList(value)
		case "stylesheets":
			m.Stylesheets = stringList(value)
		case "scripts":
			m.Scripts = stringList(value)
		case "layout":
			m.Layout, err = cast.ToStringE(value)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key] = value
		}
		if err != nil {
			warn(key, err)
		}
	}
	return m, warnings
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range tagSeparator.Split(s, -1) {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// stringList accepts a single string or any list of scalars.
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return out
}

func parseTime(v any) (*time.Time, error) {
	if p, ok := v.(*time.Time); ok {
		return p, nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// resolveImage turns a scalar into {src} and joins a relative source
// against the document pathname.
func resolveImage(v any, pathname string) any {
	switch t := v.(type) {
	case string:
		return map[string]any{"src": joinRelative(t, pathname)}
	case map[string]any:
		out := maps.Clone(t)
		if src, ok := out["src"].(string); ok {
			out["src"] = joinRelative(src, pathname)
		}
		return out
	}
	return v
}

func joinRelative(ref, pathname string) string {
	if paths.IsExternal(ref) {
		return ref
	}
	return path.Join(pathname, ref)
}

func joinAll(refs []string, pathname string) []string {
	if refs == nil {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = joinRelative(r, pathname)
	}
	return out
}

func decodeManifest(v any) (string, error) {
	if b, ok := v.(bool); ok {
		if b {
			return "/manifest.webmanifest", nil
		}
		return "", nil
	}
	return cast.ToStringE(v)
}

func decodeFeed(v any) (*Feed, error) {
	switch t := v.(type) {
	case *Feed:
		return t, nil
	case bool:
		if t {
			return nil, fmt.Errorf("feed: true needs a pathname")
		}
		return nil, nil
	}
	fields, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	f := &Feed{
		Pathname:    cast.ToString(fields["pathname"]),
		Title:       cast.ToString(fields["title"]),
		Description: cast.ToString(fields["description"]),
		Author:      cast.ToString(fields["author"]),
		Types:       stringList(fields["types"]),
	}
	if f.Pathname == "" {
		return nil, fmt.Errorf("feed without pathname")
	}
	return f, nil
}

func decodeAuthor(v any) (*Author, error) {
	switch t := v.(type) {
	case *Author:
		return t, nil
	case string:
		return &Author{Name: t}, nil
	}
	fields, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	return &Author{
		Name:    cast.ToString(fields["name"]),
		Href:    cast.ToString(fields["href"]),
		Email:   cast.ToString(fields["email"]),
		Twitter: cast.ToString(fields["twitter"]),
	}, nil
}

func decodePublisher(v any) (*Publisher, error) {
	if s, ok := v.(string); ok {
		return &Publisher{Name: s}, nil
	}
	fields, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		Name: cast.ToString(fields["name"]),
		Href: cast.ToString(fields["href"]),
	}
	if logo, ok := fields["logo"]; ok && logo != nil {
		if p.Logo, err = decodeImage(logo); err != nil {
			return nil, fmt.Errorf("logo: %w", err)
		}
	}
	return p, nil
}

func decodeImage(v any) (*Image, error) {
	switch t := v.(type) {
	case *Image:
		return t, nil
	case string:
		return &Image{Src: t}, nil
	}
	fields, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	img := &Image{
		Src:    cast.ToString(fields["src"]),
		Alt:    cast.ToString(fields["alt"]),
		Href:   cast.ToString(fields["href"]),
		Width:  cast.ToInt(fields["width"]),
		Height: cast.ToInt(fields["height"]),
	}
	if img.Src == "" {
		return nil, fmt.Errorf("image without src")
	}
	return img, nil
}

func fieldWarning(field string, cause error) error {
	return derrors.WrapError(cause, derrors.CategoryValidation, "invalid metadata value").
		Warning().
		WithContext("field", field).
		Build()
}
