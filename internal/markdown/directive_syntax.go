package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// directiveHead is the parsed `name[label]{attributes}` part of a directive.
type directiveHead struct {
	name     string
	label    []byte
	hasLabel bool
	attrs    []html.Attribute
	// n is the number of bytes consumed from the input.
	n int
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// parseDirectiveHead parses a directive name followed by an optional label
// and an optional attribute block. src starts right after the colons.
func parseDirectiveHead(src []byte) (directiveHead, bool) {
	var h directiveHead
	if len(src) == 0 || !isNameStart(src[0]) {
		return h, false
	}
	i := 1
	for i < len(src) && isNameChar(src[i]) {
		i++
	}
	h.name = string(src[:i])

	if i < len(src) && src[i] == '[' {
		end, ok := matchBracket(src, i, '[', ']')
		if !ok {
			return h, false
		}
		h.label = src[i+1 : end]
		h.hasLabel = true
		i = end + 1
	}

	if i < len(src) && src[i] == '{' {
		end, ok := matchBracket(src, i, '{', '}')
		if !ok {
			return h, false
		}
		attrs, ok := parseAttributes(string(src[i+1 : end]))
		if !ok {
			return h, false
		}
		h.attrs = attrs
		i = end + 1
	}

	h.n = i
	return h, true
}

// matchBracket finds the closer matching the opener at src[start], honouring
// nesting, backslash escapes and quoted strings inside attribute blocks. The
// search stops at the end of the line.
func matchBracket(src []byte, start int, open, closer byte) (int, bool) {
	depth := 0
	var quote byte
	for i := start; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			return 0, false
		case c == '\\' && quote == 0:
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case open == '{' && (c == '"' || c == '\''):
			quote = c
		case c == open:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// parseAttributes parses the inside of `{...}`: `.class`, `#id`, `key=value`,
// `key="value"`, `key='value'` and bare `key`. Classes are merged into one
// class attribute at the position of the first class.
func parseAttributes(s string) ([]html.Attribute, bool) {
	var (
		attrs    []html.Attribute
		classes  []string
		classIdx = -1
	)
	set := func(key, val string) {
		for i := range attrs {
			if attrs[i].Key == key {
				attrs[i].Val = val
				return
			}
		}
		attrs = append(attrs, html.Attribute{Key: key, Val: val})
	}

	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}

		switch s[i] {
		case '.', '#':
			marker := s[i]
			j := i + 1
			for j < len(s) && !isSpace(s[j]) && s[j] != '.' && s[j] != '#' {
				j++
			}
			if j == i+1 {
				return nil, false
			}
			val := s[i+1 : j]
			if marker == '#' {
				set("id", val)
			} else {
				if classIdx < 0 {
					classIdx = len(attrs)
					attrs = append(attrs, html.Attribute{Key: "class"})
				}
				classes = append(classes, val)
			}
			i = j
		default:
			j := i
			for j < len(s) && !isSpace(s[j]) && s[j] != '=' {
				j++
			}
			key := s[i:j]
			if key == "" {
				return nil, false
			}
			i = j
			if i >= len(s) || s[i] != '=' {
				set(key, "")
				continue
			}
			i++
			val, n, ok := attributeValue(s[i:])
			if !ok {
				return nil, false
			}
			i += n
			if key == "class" {
				if classIdx < 0 {
					classIdx = len(attrs)
					attrs = append(attrs, html.Attribute{Key: "class"})
				}
				classes = append(classes, strings.Fields(val)...)
				continue
			}
			set(key, val)
		}
	}

	if classIdx >= 0 {
		attrs[classIdx].Val = strings.Join(classes, " ")
	}
	return attrs, true
}

func attributeValue(s string) (string, int, bool) {
	if s == "" {
		return "", 0, true
	}
	if q := s[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[1:], q)
		if end < 0 {
			return "", 0, false
		}
		return s[1 : end+1], end + 2, true
	}
	j := 0
	for j < len(s) && !isSpace(s[j]) {
		j++
	}
	return s[:j], j, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
