// Package jsonutil holds lenient JSON helpers for model responses, which
// occasionally arrive fenced in markdown or wrapped in prose.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("jsonutil: no JSON value found")

// UnmarshalFlex unmarshals raw into v with best effort:
// 1) direct unmarshal
// 2) after stripping markdown code fences
// 3) after extracting the outermost JSON object or array
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	if stripped := StripFences(raw); len(stripped) > 0 {
		if err := json.Unmarshal(stripped, v); err == nil {
			return nil
		}
	}
	extracted, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(extracted, v)
}

// UnmarshalRaw accepts json.RawMessage directly.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return UnmarshalFlex([]byte(raw), v)
}

// StripFences removes a surrounding markdown code fence (``` or ```json).
func StripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language hint line ("json").
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return []byte(strings.TrimSpace(s))
}

// ExtractJSON returns the outermost balanced JSON object or array in raw,
// ignoring braces inside string literals.
func ExtractJSON(raw []byte) ([]byte, error) {
	start := bytes.IndexAny(raw, "{[")
	if start < 0 {
		return nil, ErrNoJSON
	}
	open := raw[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return nil, ErrNoJSON
}

// MarshalNoEscape encodes v without escaping <, > and & to < etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
