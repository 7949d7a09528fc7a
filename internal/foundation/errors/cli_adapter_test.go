package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation error", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "config error", err: ConfigError("bad config").Build(), expected: 7},
		{name: "io error", err: IOError("dist/index.html", fmt.Errorf("disk full")).Build(), expected: 11},
		{name: "wrapped build error", err: fmt.Errorf("run: %w", BuildError("2 documents failed").Build()), expected: 11},
		{name: "internal error", err: InternalError("unreachable").Build(), expected: 10},
		{name: "unclassified error", err: fmt.Errorf("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	err := IOError("content/a.md", fmt.Errorf("permission denied")).Build()

	assert.Empty(t, quiet.FormatError(nil))
	assert.Equal(t, "Error: file operation failed (content/a.md)", quiet.FormatError(err))
	assert.Contains(t, verbose.FormatError(err), "permission denied")
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("boom").Build()))
	assert.Equal(t, "Error: plain", quiet.FormatError(fmt.Errorf("plain")))
}

func TestCLIErrorAdapter_FormatJoined(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	err := stderrors.Join(
		IOError("dist/a/index.html", fmt.Errorf("disk full")).Build(),
		IOError("dist/b/index.html", fmt.Errorf("disk full")).Build(),
	)
	assert.Equal(t, "Error: file operation failed (dist/a/index.html) (+1 more)", quiet.FormatError(err))
	assert.Equal(t, 11, quiet.ExitCodeFor(err))
}

func TestSummarizeWarnings(t *testing.T) {
	assert.Empty(t, SummarizeWarnings(nil))
	assert.Equal(t, "1 warning (format=1)", SummarizeWarnings([]error{FormattingDriftError("a.md").Build()}))
	assert.Equal(t, "3 warnings (config=1, internal=1, link=1)", SummarizeWarnings([]error{
		MalformedLinkError("%zz", fmt.Errorf("bad escape")).Build(),
		ConfigurationError("feed needs a site host").Build(),
		fmt.Errorf("unclassified"),
	}))
}
