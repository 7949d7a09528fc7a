package buildstate

import (
	"fmt"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/mdsite/internal/frontmatter"
)

// Fingerprint computes the content fingerprint of a document from its front
// matter and body. The front matter is serialised canonically so key order
// does not matter, and a fingerprint field, if present, is ignored.
func Fingerprint(matter map[string]any, body []byte) (string, error) {
	fm, err := frontmatter.Canonical(matter, mdfp.FingerprintField)
	if err != nil {
		return "", fmt.Errorf("serialize front matter: %w", err)
	}
	return mdfp.CalculateFingerprintFromParts(string(fm), string(body)), nil
}
