package assets

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/hast"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/storage"
)

// Copier writes non-document files to the output directory.
type Copier struct {
	FS        storage.FS
	OutputDir string
}

// CopyAsset copies rel from dir to the same relative path below the output
// directory. SVG files are optimised on the way.
func (c Copier) CopyAsset(dir, rel string) error {
	source := filepath.Join(dir, filepath.FromSlash(rel))
	target := filepath.Join(c.OutputDir, filepath.FromSlash(rel))

	if !strings.EqualFold(filepath.Ext(rel), ".svg") {
		slog.Debug("Copying asset", logfields.Asset(rel))
		if err := c.FS.CopyFile(target, source); err != nil {
			return derrors.IOError(source, err).Build()
		}
		return nil
	}

	slog.Debug("Optimizing asset", logfields.Asset(rel))
	data, err := c.FS.ReadFile(source)
	if err != nil {
		return derrors.IOError(source, err).Build()
	}
	optimized, err := OptimizeSVG(data)
	if err != nil {
		// Keep the original bytes when the file cannot be parsed.
		slog.Warn("SVG optimisation failed", logfields.Asset(rel), logfields.Error(err))
		optimized = data
	}
	if err := c.FS.WriteFile(target, optimized); err != nil {
		return derrors.IOError(target, err).Build()
	}
	return nil
}

// Elements whose whitespace-only text is significant.
var textElements = map[string]bool{"text": true, "tspan": true, "textPath": true, "style": true, "title": true, "desc": true}

// OptimizeSVG removes comments and the XML prolog, drops width and height
// from the root element when it has a viewBox, removes content attributes and
// collapses whitespace between tags.
func OptimizeSVG(data []byte) ([]byte, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(data), context)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	var root *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == "svg" {
			root = n
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parse svg: no <svg> root element")
	}

	if hast.HasAttr(root, "viewBox") {
		removeAttrs(root, "width", "height")
	}
	removeAttrs(root, "content")
	clean(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return buf.Bytes(), nil
}

func clean(n *html.Node) {
	for _, c := range hast.Children(n) {
		switch c.Type {
		case html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" && !textElements[n.Data] {
				n.RemoveChild(c)
			}
		case html.ElementNode:
			removeAttrs(c, "content")
			clean(c)
		}
	}
}

func removeAttrs(n *html.Node, keys ...string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		drop := false
		for _, k := range keys {
			if a.Namespace == "" && a.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
