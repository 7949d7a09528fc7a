// Package assets concatenates the per-type stylesheet and script lists of
// the site defaults into one artifact per type, and copies non-document
// files to the output directory.
package assets

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cast"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/meta"
	"git.home.luguber.info/inful/mdsite/internal/storage"
)

// Kind selects the asset list a bundle is built from.
type Kind string

const (
	Stylesheets Kind = "stylesheets"
	Scripts     Kind = "scripts"
)

// Ext is the file extension of the bundle artifact.
func (k Kind) Ext() string {
	if k == Scripts {
		return "js"
	}
	return "css"
}

// Dir is the site directory bundle artifacts are written to.
const Dir = "_assets"

// Bundle accumulates bundling state for one build. It is threaded through
// BundleAssets and must not be shared between builds or goroutines.
type Bundle struct {
	fs         storage.FS
	outputDir  string
	sourceDirs []string

	// kind -> type -> asset
	seen map[Kind]map[string]map[string]bool
	// kind -> type, set once the artifact file exists
	started   map[Kind]map[string]bool
	artifacts map[Kind]map[string]string
	warnings  []error
}

// NewBundle returns an empty accumulator. Asset references are looked up
// in sourceDirs in order.
func NewBundle(fsys storage.FS, outputDir string, sourceDirs ...string) *Bundle {
	return &Bundle{
		fs:         fsys,
		outputDir:  outputDir,
		sourceDirs: sourceDirs,
		seen:       make(map[Kind]map[string]map[string]bool),
		started:    make(map[Kind]map[string]bool),
		artifacts:  make(map[Kind]map[string]string),
	}
}

// Href is the site path of the artifact for typ.
func Href(kind Kind, typ string) string {
	return "/" + Dir + "/" + typ + "." + kind.Ext()
}

// Hrefs returns the artifacts a document of typ links to: the generic
// artifact first, then the type's own artifact when it has one.
func (b *Bundle) Hrefs(kind Kind, typ string) []string {
	var out []string
	if href, ok := b.artifacts[kind][meta.GenericType]; ok {
		out = append(out, href)
	}
	if typ != meta.GenericType {
		if href, ok := b.artifacts[kind][typ]; ok {
			out = append(out, href)
		}
	}
	return out
}

// Warnings returns the non-fatal problems recorded so far.
func (b *Bundle) Warnings() []error {
	return b.warnings
}

// Apply sets the bundled asset lists of m from the accumulated artifacts.
func (b *Bundle) Apply(m *meta.Metadata) {
	m.BundledStylesheets = b.Hrefs(Stylesheets, m.Type)
	m.BundledScripts = b.Hrefs(Scripts, m.Type)
}

// Order returns the generic type followed by the other types sorted.
func Order(types []string) []string {
	out := []string{meta.GenericType}
	rest := slices.Clone(types)
	slices.Sort(rest)
	for _, t := range slices.Compact(rest) {
		if t != meta.GenericType {
			out = append(out, t)
		}
	}
	return out
}

// BundleAssets builds the kind artifacts for types from the asset lists in
// defaults. The generic type is always processed first so that assets it
// already carries are skipped by the other types. The first asset of a type
// is copied to the artifact and later ones are appended to it.
//
// A missing source asset is recorded as a warning and skipped. Other file
// errors are returned.
func BundleAssets(kind Kind, types []string, defaults meta.Defaults, b *Bundle) error {
	if b.seen[kind] == nil {
		b.seen[kind] = make(map[string]map[string]bool)
		b.started[kind] = make(map[string]bool)
		b.artifacts[kind] = make(map[string]string)
	}

	for _, typ := range Order(types) {
		assets := cast.ToStringSlice(defaults[typ][string(kind)])
		if len(assets) == 0 {
			continue
		}
		seen := b.seen[kind][typ]
		if seen == nil {
			seen = make(map[string]bool)
			b.seen[kind][typ] = seen
		}
		target := filepath.Join(b.outputDir, filepath.FromSlash(strings.TrimPrefix(Href(kind, typ), "/")))

		for _, asset := range assets {
			if seen[asset] {
				continue
			}
			seen[asset] = true
			if typ != meta.GenericType && b.seen[kind][meta.GenericType][asset] {
				continue
			}

			if err := b.add(kind, typ, asset, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bundle) add(kind Kind, typ, asset, target string) error {
	source, ok := b.locate(asset)
	if !ok {
		b.warnings = append(b.warnings, derrors.IOError(asset, storage.ErrNotFound{Path: asset}).
			Warning().
			WithContext("type", typ).
			WithContext("kind", string(kind)).
			Build())
		slog.Warn("Bundle asset not found", logfields.Asset(asset), logfields.DocType(typ))
		return nil
	}

	if !b.started[kind][typ] {
		if err := b.fs.CopyFile(target, source); err != nil {
			return derrors.IOError(target, err).Build()
		}
		b.started[kind][typ] = true
		b.artifacts[kind][typ] = Href(kind, typ)
		slog.Debug("Bundle started", logfields.Asset(asset), logfields.DocType(typ), logfields.Kind(string(kind)))
		return nil
	}

	data, err := b.fs.ReadFile(source)
	if err != nil {
		return derrors.IOError(source, err).Build()
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if err := b.fs.AppendFile(target, data); err != nil {
		return derrors.IOError(target, err).Build()
	}
	slog.Debug("Bundle appended", logfields.Asset(asset), logfields.DocType(typ), logfields.Kind(string(kind)))
	return nil
}

// locate finds asset in the source directories. Asset references are site
// paths, with or without a leading slash.
func (b *Bundle) locate(asset string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+asset), "/")
	for _, dir := range b.sourceDirs {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if b.fs.Exists(p) {
			return p, true
		}
	}
	return "", false
}

// String describes the artifacts, for logs.
func (b *Bundle) String() string {
	var parts []string
	for _, kind := range []Kind{Stylesheets, Scripts} {
		types := make([]string, 0, len(b.artifacts[kind]))
		for t := range b.artifacts[kind] {
			types = append(types, t)
		}
		slices.Sort(types)
		parts = append(parts, fmt.Sprintf("%s=%v", kind, types))
	}
	return strings.Join(parts, " ")
}
