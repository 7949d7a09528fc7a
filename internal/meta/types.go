package meta

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TypeRule assigns Type to documents whose source path matches Pattern.
type TypeRule struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
}

// TypeResolver decides the document type of a source path.
type TypeResolver struct {
	rules []TypeRule
}

// NewTypeResolver validates the glob patterns of rules.
func NewTypeResolver(rules []TypeRule) (*TypeResolver, error) {
	for i, r := range rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("types[%d]: invalid pattern %q", i, r.Pattern)
		}
		if strings.TrimSpace(r.Type) == "" {
			return nil, fmt.Errorf("types[%d]: empty type for pattern %q", i, r.Pattern)
		}
	}
	return &TypeResolver{rules: rules}, nil
}

// Resolve returns the front matter type when present, else the type of the
// first matching rule, else GenericType.
func (r *TypeResolver) Resolve(sourcePath string, matter map[string]any) string {
	if t, ok := matter["type"].(string); ok && t != "" {
		return t
	}
	if r != nil {
		for _, rule := range r.rules {
			if ok, _ := doublestar.Match(rule.Pattern, sourcePath); ok {
				return rule.Type
			}
		}
	}
	return GenericType
}
