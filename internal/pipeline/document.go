package pipeline

import (
	"git.home.luguber.info/inful/mdsite/internal/mdast"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// State is the lifecycle position of a Document. States only move forward.
type State int

const (
	Discovered State = iota
	Parsed
	MetadataResolved
	TreeTransformed
	Rendered
	Written
)

var stateNames = [...]string{"discovered", "parsed", "metadata-resolved", "tree-transformed", "rendered", "written"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Document is one source file and the state derived from it during a build.
// It is owned by the orchestrator for the duration of one build.
type Document struct {
	// SourcePath is slash-separated and relative to Root.
	SourcePath string
	// Root is the content directory the document was discovered in.
	Root string

	Raw    []byte
	Matter map[string]any
	Body   []byte
	Tree   *mdast.Root

	Pathname    string
	Meta        *meta.Metadata
	Fingerprint string

	Output     []byte
	OutputPath string
	// Skipped is set when the rebuild cache showed the output to be current.
	Skipped bool
	// Excluded documents are rendered but left out of feed, sitemap and
	// search index.
	Excluded bool

	Warnings []error
	State    State
}

func (d *Document) warn(err error) {
	if err != nil {
		d.Warnings = append(d.Warnings, err)
	}
}

func (d *Document) advance(s State) {
	if s > d.State {
		d.State = s
	}
}
