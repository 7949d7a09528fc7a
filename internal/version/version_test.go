package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"defaults", "unknown", "unknown", "unknown"},
		{"release", "v1.2.0", "unknown", "v1.2.0"},
		{"with commit", "v1.2.0", "0123456789abcdef", "v1.2.0 (0123456)"},
		{"short commit", "dev", "abc", "dev (abc)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldV, oldC := Version, GitCommit
			t.Cleanup(func() { Version, GitCommit = oldV, oldC })
			Version, GitCommit = tt.version, tt.commit
			assert.Equal(t, tt.want, String())
		})
	}
}
