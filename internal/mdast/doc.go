// Package mdast is the mutable Markdown syntax tree passed between pipeline
// stages.
//
// The shape follows the mdast vocabulary (root, paragraph, heading, link,
// linkReference, definition, ...) plus the three directive variants. Every
// node carries optional render hints that tell the HTML renderer to emit a
// different element, different attributes, or replacement children.
package mdast
