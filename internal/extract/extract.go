// Package extract recovers a structured review payload from raw reviewer
// output. Reviewers commonly prepend narration before the payload or wrap it
// in markdown fences for readability, so extraction layers several recovery
// strategies from cheapest to most thorough.
package extract

import (
	"strings"

	"github.com/joescharf/rev/internal/jsonx"
)

// Result is the outcome of an extraction attempt: a decoded payload on
// success, or a reason string on failure. Extraction failure is recoverable
// by the caller (it becomes a diagnostic review record), so it is data here
// rather than an error return.
type Result struct {
	Payload map[string]any
	Reason  string
}

// OK reports whether extraction produced a payload.
func (r Result) OK() bool {
	return r.Payload != nil
}

// Extract attempts to recover a JSON object from raw reviewer text.
// Strategies, in order, first success wins:
//
//  1. decode the entire text
//  2. decode the interior of a ```json fenced block
//  3. decode the first brace-matched substring
//
// All decoding is comment- and trailing-comma-tolerant.
func Extract(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Reason: "reviewer output is empty"}
	}

	if payload, err := decodeObject(trimmed); err == nil {
		return Result{Payload: payload}
	}

	if block, ok := fencedBlock(trimmed); ok {
		if payload, err := decodeObject(block); err == nil {
			return Result{Payload: payload}
		}
	}

	if candidate, ok := braceMatch(trimmed); ok {
		if payload, err := decodeObject(candidate); err == nil {
			return Result{Payload: payload}
		}
	}

	return Result{Reason: "no decodable JSON object in reviewer output"}
}

// decodeObject decodes s and requires the top-level value to be an object.
func decodeObject(s string) (map[string]any, error) {
	v, err := jsonx.Decode(s)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

type notObjectError struct{}

func (notObjectError) Error() string { return "top-level JSON value is not an object" }

var errNotObject = notObjectError{}

// fencedBlock returns the interior of the first ```json fenced block.
func fencedBlock(s string) (string, bool) {
	const marker = "```json"
	start := strings.Index(s, marker)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(marker):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	rest = rest[nl+1:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// braceMatch returns the substring from the first { to the } where nesting
// depth returns to zero. Braces inside string literals do not perturb the
// count; escaped quotes do not terminate a string.
func braceMatch(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
