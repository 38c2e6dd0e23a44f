package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxDepth bounds nesting in decoded documents.
const maxDepth = 512

// YAML aliases may expand a document far beyond its text. Expansion stops
// after yamlNodesPerByte nodes per input byte (at least minYAMLNodes).
const (
	yamlNodesPerByte = 64
	minYAMLNodes     = 1 << 16
)

// errYAMLExpansion reports a document whose aliases expand past the budget.
var errYAMLExpansion = errors.New("YAML aliases expand too far")

// object is a decoded JSON object that remembers key order.
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: make(map[string]any)}
}

func (o *object) set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// syntaxError is a decode failure with a byte offset into the source.
type syntaxError struct {
	msg    string
	offset int64
}

func (e *syntaxError) Error() string { return e.msg }

// decodeJSON decodes content into *object, []any, json.Number, string, bool or
// nil values. Exactly one top-level value is accepted.
func decodeJSON(content string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	d := &jsonDecoder{dec: dec, size: int64(len(content))}

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, &syntaxError{msg: "empty input", offset: 0}
	}
	if err != nil {
		return nil, d.wrap(err)
	}
	v, err := d.value(tok, 0)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, d.wrap(err)
		}
		return nil, &syntaxError{msg: "unexpected data after top-level value", offset: dec.InputOffset()}
	}
	return v, nil
}

type jsonDecoder struct {
	dec  *json.Decoder
	size int64
}

func (d *jsonDecoder) wrap(err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &syntaxError{msg: se.Error(), offset: se.Offset}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &syntaxError{msg: "unexpected end of input", offset: d.size}
	}
	return &syntaxError{msg: err.Error(), offset: d.dec.InputOffset()}
}

func (d *jsonDecoder) next() (json.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, d.wrap(err)
	}
	return tok, nil
}

func (d *jsonDecoder) value(tok json.Token, depth int) (any, error) {
	if depth > maxDepth {
		return nil, &syntaxError{msg: "nesting too deep", offset: d.dec.InputOffset()}
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for d.dec.More() {
				keyTok, err := d.next()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, &syntaxError{msg: "object key must be a string", offset: d.dec.InputOffset()}
				}
				valTok, err := d.next()
				if err != nil {
					return nil, err
				}
				v, err := d.value(valTok, depth+1)
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			}
			if _, err := d.next(); err != nil {
				return nil, err
			}
			return obj, nil

		case '[':
			arr := make([]any, 0)
			for d.dec.More() {
				elemTok, err := d.next()
				if err != nil {
					return nil, err
				}
				v, err := d.value(elemTok, depth+1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := d.next(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, &syntaxError{msg: fmt.Sprintf("unexpected delimiter %q", rune(t)), offset: d.dec.InputOffset()}

	case json.Number, string, bool, nil:
		return t, nil
	}
	return nil, &syntaxError{msg: fmt.Sprintf("unexpected token %v", tok), offset: d.dec.InputOffset()}
}

// decodeYAML decodes a YAML document into the same value model as decodeJSON.
// Line and column of failures are carried in the message since yaml.v3 does
// not expose byte offsets.
func decodeYAML(content string) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	y := &yamlDecoder{budget: max(minYAMLNodes, yamlNodesPerByte*len(content))}
	return y.value(doc.Content[0], 0)
}

type yamlDecoder struct {
	budget int // nodes left to visit, aliases included
}

func (y *yamlDecoder) value(n *yaml.Node, depth int) (any, error) {
	y.budget--
	if y.budget < 0 {
		return nil, fmt.Errorf("line %d: %w", n.Line, errYAMLExpansion)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("line %d: nesting too deep", n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return y.value(n.Content[0], depth)
	case yaml.AliasNode:
		return y.value(n.Alias, depth+1)
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			v, err := y.value(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			obj.set(k.Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := y.value(c, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil, nil
		case "!!bool":
			b, err := strconv.ParseBool(n.Value)
			if err != nil {
				var v bool
				if derr := n.Decode(&v); derr != nil {
					return nil, fmt.Errorf("line %d: %w", n.Line, derr)
				}
				return v, nil
			}
			return b, nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			if n.Tag == "!!int" {
				var i int64
				if err := n.Decode(&i); err == nil {
					return json.Number(strconv.FormatInt(i, 10)), nil
				}
			}
			return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
		default:
			return n.Value, nil
		}
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// plain converts a decoded value into map[string]any / []any form for
// libraries that expect standard JSON values.
func plain(v any) any {
	switch t := v.(type) {
	case *object:
		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			m[k] = plain(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	}
	return v
}

// position converts a byte offset into a 1-based line and column.
func position(src string, offset int64) (line, col int) {
	if offset > int64(len(src)) {
		offset = int64(len(src))
	}
	if offset < 0 {
		offset = 0
	}
	prefix := src[:offset]
	line = strings.Count(prefix, "\n") + 1
	col = int(offset) - strings.LastIndex(prefix, "\n")
	return line, col
}
