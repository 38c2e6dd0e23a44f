// Package jsoncompact shortens JSON values for display in reports and log
// lines: long arrays and strings are trimmed and the result is one line.
package jsoncompact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Options controls how much of a value survives.
type Options struct {
	MaxArrayItems int // keep the first N items (0 = all)
	MaxStringLen  int // truncate strings after N bytes (0 = no limit)
	MaxDepth      int // replace containers nested deeper than N (0 = no limit)
	MaxBytes      int // truncate the final text after N bytes (0 = no limit)
}

// Defaults used by DefaultOptions.
const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 80
	DefaultMaxDepth      = 6
	DefaultMaxBytes      = 400
)

// DefaultOptions returns settings suited to one-line excerpts.
func DefaultOptions() *Options {
	return &Options{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
		MaxDepth:      DefaultMaxDepth,
		MaxBytes:      DefaultMaxBytes,
	}
}

// Compact trims data and re-encodes it on one line. Numbers keep their
// original text. Returns an error if data is not valid JSON. A nil opts
// means DefaultOptions().
func Compact(data []byte, opts *Options) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(trim(v, opts, 0)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Excerpt is Compact for display: invalid JSON is shown as raw text, and the
// result is cut to MaxBytes.
func Excerpt(text string, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}
	out := text
	if b, err := Compact([]byte(text), opts); err == nil {
		out = string(b)
	}
	return truncate(out, opts.MaxBytes, "…")
}

func trim(v any, opts *Options, depth int) any {
	switch val := v.(type) {
	case []any:
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return fmt.Sprintf("[%d items]", len(val))
		}
		keep := len(val)
		if opts.MaxArrayItems > 0 && keep > opts.MaxArrayItems {
			keep = opts.MaxArrayItems
		}
		out := make([]any, 0, keep+1)
		for _, item := range val[:keep] {
			out = append(out, trim(item, opts, depth+1))
		}
		if rest := len(val) - keep; rest > 0 {
			out = append(out, fmt.Sprintf("... (%d more items)", rest))
		}
		return out
	case map[string]any:
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return fmt.Sprintf("{%d keys}", len(val))
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = trim(item, opts, depth+1)
		}
		return out
	case string:
		if opts.MaxStringLen > 0 && len(val) > opts.MaxStringLen {
			return truncate(val, opts.MaxStringLen, fmt.Sprintf("... (%d more bytes)", len(val)-opts.MaxStringLen))
		}
		return val
	}
	return v
}

// truncate cuts s to at most n bytes on a rune boundary and appends suffix.
func truncate(s string, n int, suffix string) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
