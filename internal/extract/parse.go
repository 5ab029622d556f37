package extract

import (
	"encoding/json"
	"strings"

	"github.com/cuba6112/lesson-builder/internal/logging"
)

// DefaultAcknowledgment is shown when a payload carries commands but no
// display message of its own.
const DefaultAcknowledgment = "Done! Let me know if you'd like anything changed."

// RawCommand is one requested action as it appeared in the payload, before
// schema validation.
type RawCommand struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// Reply is the normalized result of parsing one full model response.
type Reply struct {
	// Reasoning is the model's optional self-narration. Display-only.
	Reasoning string
	// Commands are the requested actions, possibly empty.
	Commands []RawCommand
	// Message is the text to show the user.
	Message string
	// Structured reports whether a command payload was found. When false the
	// reply was conversational and Message holds the original text verbatim.
	Structured bool
}

// payload is the expected top-level shape of a structured reply.
type payload struct {
	Reasoning string          `json:"reasoning"`
	Commands  json.RawMessage `json:"commands"`
	Message   string          `json:"message"`
}

// ParseReply extracts a command payload from the accumulated response text.
// Strategies run in order, stopping at the first success:
//
//  1. each fenced code block's interior, via ExtractObject
//  2. the raw full text, via ExtractObject
//  3. lenient re-parse after stripping trailing commas
//
// When every strategy fails the reply is treated as conversational: the whole
// text becomes the display message, with zero commands. That is the expected
// shape of a non-actionable answer, not an error.
func ParseReply(text string) Reply {
	for _, interior := range fencedBlocks(text) {
		if candidate, ok := ExtractObject(interior); ok {
			if reply, ok := decodePayload(candidate); ok {
				return reply
			}
		}
	}

	if candidate, ok := ExtractObject(text); ok {
		if reply, ok := decodePayload(candidate); ok {
			return reply
		}
	}

	return Reply{Message: text}
}

// fencedBlocks returns the interiors of all triple-backtick blocks, in order.
// A "json" language tag after the opening fence is skipped.
func fencedBlocks(text string) []string {
	var blocks []string
	rest := text
	for {
		open := strings.Index(rest, "```")
		if open < 0 {
			return blocks
		}
		rest = rest[open+3:]

		// Drop the optional language annotation up to end of line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			tag := strings.TrimSpace(rest[:nl])
			if tag == "" || strings.EqualFold(tag, "json") {
				rest = rest[nl+1:]
			}
		}

		close := strings.Index(rest, "```")
		if close < 0 {
			// Unterminated fence: the interior may still hold a payload.
			blocks = append(blocks, rest)
			return blocks
		}
		blocks = append(blocks, rest[:close])
		rest = rest[close+3:]
	}
}

// decodePayload parses candidate as the expected payload shape, retrying once
// with trailing commas stripped.
func decodePayload(candidate string) (Reply, bool) {
	var p payload
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		repaired := stripTrailingCommas(candidate)
		if repaired == candidate {
			return Reply{}, false
		}
		if err := json.Unmarshal([]byte(repaired), &p); err != nil {
			logging.Debug("payload rejected after repair", "error", err)
			return Reply{}, false
		}
	}

	reply := Reply{
		Reasoning:  p.Reasoning,
		Message:    p.Message,
		Structured: true,
	}

	// A commands field that is not a list is coerced to an empty list.
	if len(p.Commands) > 0 {
		var cmds []RawCommand
		if err := json.Unmarshal(p.Commands, &cmds); err != nil {
			logging.Debug("commands field is not a list, coercing to empty")
		} else {
			reply.Commands = cmds
		}
	}

	if reply.Message == "" {
		reply.Message = DefaultAcknowledgment
	}

	return reply, true
}

// stripTrailingCommas removes commas whose next non-whitespace character is
// '}' or ']'. String contents are left untouched.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
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

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma, keep the whitespace
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
