package markdown

import (
	"bytes"
	"strings"
)

// Format normalises Markdown source text: CRLF line endings become LF,
// trailing whitespace is removed (two or more trailing spaces that encode a
// hard line break are kept as exactly two), runs of blank lines collapse to
// one, and the text ends with exactly one newline. Fenced code blocks are
// left untouched.
func Format(source []byte) []byte {
	text := strings.ReplaceAll(string(source), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	out := make([]string, 0, len(lines))
	var fence string
	blank := 0
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if fence == "" {
			if f := fenceMarker(trimmed); f != "" {
				fence = f
			}
		} else if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, fence[:1]) == "" {
			fence = ""
			out = append(out, line)
			blank = 0
			continue
		}
		if fence != "" {
			out = append(out, line)
			blank = 0
			continue
		}

		stripped := strings.TrimRight(line, " \t")
		if stripped == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		if strings.HasSuffix(line, "  ") {
			stripped += "  "
		}
		out = append(out, stripped)
	}

	result := strings.TrimRight(strings.Join(out, "\n"), "\n")
	if result == "" {
		return nil
	}
	return []byte(result + "\n")
}

func fenceMarker(line string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, m) {
			n := len(line) - len(strings.TrimLeft(line, m[:1]))
			return strings.Repeat(m[:1], n)
		}
	}
	return ""
}

// NeedsFormat reports whether Format would change source.
func NeedsFormat(source []byte) bool {
	return !bytes.Equal(Format(source), source)
}
