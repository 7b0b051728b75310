// Package jsonx decodes near-JSON text as produced by LLM reviewers: JSON
// with // and /* */ comments and trailing commas before a closing } or ].
// Anything else that strict encoding/json rejects is still an error.
package jsonx

import (
	"encoding/json"
	"strings"
)

// Decode sanitizes input and decodes it into a generic value.
func Decode(input string) (any, error) {
	var v any
	if err := DecodeInto(input, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeInto sanitizes input and decodes it into v with a strict decoder.
func DecodeInto(input string, v any) error {
	return json.Unmarshal([]byte(Sanitize(input)), v)
}

// Sanitize strips comments and trailing commas from near-JSON text in a
// single pass. String literals are copied verbatim, with backslash escapes
// honored so an escaped quote does not terminate the string; comment markers
// and commas inside strings are never special.
func Sanitize(input string) string {
	var out strings.Builder
	out.Grow(len(input))

	n := len(input)
	inString := false

	for i := 0; i < n; {
		c := input[i]

		if inString {
			out.WriteByte(c)
			if c == '\\' && i+1 < n {
				out.WriteByte(input[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
			i++

		case c == '/' && i+1 < n && input[i+1] == '/':
			i += 2
			for i < n && input[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && input[i+1] == '*':
			i = skipBlockComment(input, i+2)

		case c == ',':
			// A comma is trailing only if the next significant character
			// (past whitespace and comments) closes an object or array.
			j := skipInsignificant(input, i+1)
			if j < n && (input[j] == '}' || input[j] == ']') {
				i = j
			} else {
				out.WriteByte(c)
				i++
			}

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// skipBlockComment returns the index just past the closing */, or len(s) if
// the comment is unterminated.
func skipBlockComment(s string, i int) int {
	for i+1 < len(s) {
		if s[i] == '*' && s[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(s)
}

// skipInsignificant returns the index of the next character that is neither
// whitespace nor part of a comment.
func skipInsignificant(s string, i int) int {
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < n && s[i+1] == '/':
			i += 2
			for i < n && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && s[i+1] == '*':
			i = skipBlockComment(s, i+2)
		default:
			return i
		}
	}
	return n
}
