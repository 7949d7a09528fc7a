package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFM   string
		wantBody string
		wantHad  bool
		wantErr  error
	}{
		{
			name:     "no front matter",
			input:    "# Title\n",
			wantBody: "# Title\n",
		},
		{
			name:     "yaml front matter",
			input:    "---\ntitle: x\n---\n# Body\n",
			wantFM:   "title: x\n",
			wantBody: "# Body\n",
			wantHad:  true,
		},
		{
			name:     "crlf",
			input:    "---\r\ntitle: x\r\n---\r\nbody\r\n",
			wantFM:   "title: x\r\n",
			wantBody: "body\r\n",
			wantHad:  true,
		},
		{
			name:     "empty block",
			input:    "---\n---\nbody",
			wantBody: "body",
			wantHad:  true,
		},
		{
			name:    "closing delimiter at end of file",
			input:   "---\ntitle: x\n---",
			wantFM:  "title: x\n",
			wantHad: true,
		},
		{
			name:    "missing closing delimiter",
			input:   "---\ntitle: x\nbody\n",
			wantErr: ErrMissingClosingDelimiter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, _, err := Split([]byte(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHad, had)
			assert.Equal(t, tt.wantFM, string(fm))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	inputs := []string{
		"---\ntitle: x\n---\nbody\n",
		"---\r\ntitle: x\r\n---\r\nbody\r\n",
		"plain body",
	}
	for _, in := range inputs {
		fm, body, had, style, err := Split([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, in, string(Join(fm, body, had, style)))
	}
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte("---\ntitle: Hello\ntags: a, b\npublished: 2022-03-05\n---\n# Body\n"))
	require.NoError(t, err)
	assert.True(t, m.Present)
	assert.Equal(t, "Hello", m.Fields["title"])
	assert.Equal(t, "a, b", m.Fields["tags"])
	// yaml.v3 keeps timestamp-looking scalars as strings when decoding into any.
	assert.Equal(t, "2022-03-05", m.Fields["published"])
	assert.Equal(t, "# Body\n", string(m.Body))

	m, err = Parse([]byte("# No matter\n"))
	require.NoError(t, err)
	assert.False(t, m.Present)
	assert.NotNil(t, m.Fields)
	assert.Empty(t, m.Fields)

	_, err = Parse([]byte("---\n: [broken\n---\n"))
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	out, err := Canonical(map[string]any{"b": 1, "a": "x", "fingerprint": "zzz"}, "fingerprint")
	require.NoError(t, err)
	assert.Equal(t, "a: x\nb: 1", string(out))

	out, err = Canonical(map[string]any{"fingerprint": "zzz"}, "fingerprint")
	require.NoError(t, err)
	assert.Nil(t, out)
}
