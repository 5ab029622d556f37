// Package extract locates and decodes structured command payloads inside
// free-form model output. Models wrap their JSON in prose, markdown fences,
// or emit it with minor syntax damage; this package recovers the payload
// without ever trusting the surrounding text.
package extract

import "strings"

// ExtractObject returns the first balanced JSON object found in s.
// Scanning starts at the first '{' and tracks brace depth; characters inside
// double-quoted strings are opaque, with backslash escaping the next
// character. Runs in linear time with constant extra state.
//
// Returns ok=false when s contains no '{' or the object never closes;
// an unbalanced payload is reported as absent, never truncated.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
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
