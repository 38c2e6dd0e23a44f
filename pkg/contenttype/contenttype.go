// Package contenttype guesses what a pasted or piped sample is from its
// leading bytes.
package contenttype

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Category is a broad classification of sample content.
type Category string

const (
	JSON       Category = "json"
	JSONSchema Category = "json-schema"
	YAML       Category = "yaml"
	TypeScript Category = "typescript"
	Zod        Category = "zod"
	Go         Category = "go"
	Text       Category = "text"
	Binary     Category = "binary"
)

// sniffLen bounds how much of the content is inspected for markers.
const sniffLen = 8 << 10

var bom = []byte{0xEF, 0xBB, 0xBF}

// Sniff classifies data. JSON objects carrying a "$schema" key are
// JSONSchema. Content that is neither JSON nor a recognizable declaration
// falls back to YAML when it looks like a mapping, else Text.
func Sniff(data []byte) Category {
	if IsBinary(data) {
		return Binary
	}
	data = bytes.TrimPrefix(data, bom)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Text
	}
	head := trimmed
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	switch trimmed[0] {
	case '{':
		if bytes.Contains(head, []byte(`"$schema"`)) {
			return JSONSchema
		}
		return JSON
	case '[', '"':
		return JSON
	}
	if json.Valid(trimmed) {
		return JSON
	}

	text := string(head)
	switch {
	case strings.Contains(text, `from "zod"`), strings.Contains(text, `from 'zod'`), strings.Contains(text, "z.object("):
		return Zod
	case strings.HasPrefix(text, "package "), hasLinePrefix(text, "type ") && strings.Contains(text, " struct {"):
		return Go
	case hasLinePrefix(text, "interface "), hasLinePrefix(text, "export interface "),
		hasLinePrefix(text, "export type "), hasLinePrefix(text, "type ") && strings.Contains(text, "="):
		return TypeScript
	case looksLikeMapping(text):
		return YAML
	}
	return Text
}

// IsBinary reports whether data is not valid UTF-8 text or contains NUL
// bytes.
func IsBinary(data []byte) bool {
	return !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0
}

func hasLinePrefix(text, prefix string) bool {
	for line := range strings.Lines(text) {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), prefix) {
			return true
		}
	}
	return false
}

// looksLikeMapping reports whether the first significant line is a YAML
// "key:" entry or document marker.
func looksLikeMapping(text string) bool {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "---" {
			return true
		}
		key, _, ok := strings.Cut(line, ":")
		return ok && key != "" && !strings.ContainsAny(key, " \t{}[]()")
	}
	return false
}
