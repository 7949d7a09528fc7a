package meta

import (
	"fmt"
	"strings"
)

// DraftPolicy decides when draft documents are left out of the feed, the
// sitemap and the search index. Drafts are always rendered and written.
type DraftPolicy string

const (
	// DraftsCI excludes drafts when the CI environment variable is set.
	DraftsCI DraftPolicy = "ci"
	// DraftsAlways excludes drafts from every build.
	DraftsAlways DraftPolicy = "always"
	// DraftsNever keeps drafts in every derived artifact.
	DraftsNever DraftPolicy = "never"
)

// ParseDraftPolicy parses a policy name. The empty string selects DraftsCI.
func ParseDraftPolicy(s string) (DraftPolicy, error) {
	switch p := DraftPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DraftsCI, nil
	case DraftsCI, DraftsAlways, DraftsNever:
		return p, nil
	default:
		return "", fmt.Errorf("unknown draft policy %q (want ci, always or never)", s)
	}
}

// Excluded reports whether the document is hidden from derived artifacts.
// getenv is usually os.Getenv.
func (m *Metadata) Excluded(policy DraftPolicy, getenv func(string) string) bool {
	if !m.Draft {
		return false
	}
	switch policy {
	case DraftsAlways:
		return true
	case DraftsNever:
		return false
	default:
		return getenv != nil && getenv("CI") != ""
	}
}
