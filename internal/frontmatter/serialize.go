package frontmatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Canonical serializes fields into stable YAML (without delimiters), omitting
// the given keys. yaml.v3 sorts map keys, so equal records always produce equal
// bytes regardless of their order in the source. An empty record yields nil.
func Canonical(fields map[string]any, omit ...string) ([]byte, error) {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = v
	}
	for _, k := range omit {
		delete(filtered, k)
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(filtered); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
