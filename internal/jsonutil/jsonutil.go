// Package jsonutil extracts a single JSON value from a line of text.
//
// It backs the observation engine's parsing of "/dyno info <json>" control
// lines: the payload is whatever JSON value follows the prefix, possibly
// with trailing whitespace, and must be isolated before unmarshalling.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractValue returns the first top-level JSON object or array found in
// text, matched by brace/bracket balancing (so embedded strings containing
// braces do not confuse the scan). An error is returned if no valid JSON
// value is found.
func ExtractValue(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	n := len(text)
	for i := 0; i < n; i++ {
		ch := text[i]
		if ch != '{' && ch != '[' {
			continue
		}
		end := matchingDelimiter(text, i)
		if end < 0 {
			continue
		}
		candidate := text[i : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, fmt.Errorf("jsonutil: no valid JSON value found in text")
}

// ExtractInto extracts the first JSON value from text and unmarshals it
// into target.
func ExtractInto(text string, target interface{}) error {
	raw, err := ExtractValue(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("jsonutil: unmarshal failed: %w", err)
	}
	return nil
}

// matchingDelimiter returns the index of the closing delimiter that closes
// the opening delimiter ('{' -> '}', '[' -> ']') at position start in text.
// It returns -1 when no matching closer is found. Quoted strings and escape
// sequences are honored so that braces/brackets inside strings are ignored.
func matchingDelimiter(text string, start int) int {
	openCh := text[start]
	var closeCh byte
	switch openCh {
	case '{':
		closeCh = '}'
	case '[':
		closeCh = ']'
	default:
		return -1
	}

	depth := 0
	inString := false
	n := len(text)

	for i := start; i < n; i++ {
		ch := text[i]

		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
