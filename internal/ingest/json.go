package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/pkg/shape"
	"github.com/usestring/typepaste/pkg/types"
)

// ingestJSON adds one observation per JSON value in the sample. With a Select
// expression every value it yields is an observation.
func ingestJSON(set *shape.Shapes, s types.Sample, queries *cache.QueryCache) error {
	if s.Select == "" {
		v, err := decodeJSON(s.Content)
		if err != nil {
			return parseError(s.Content, err)
		}
		set.Add(s.Name, string(types.KindJSON), shapeOf(v))
		return nil
	}

	values, err := selectValues(queries, s.Content, s.Select)
	if err != nil {
		return err
	}
	for _, text := range values {
		v, err := decodeJSON(text)
		if err != nil {
			return types.Errorf(types.CodeInternalInvariant, "re-decoding selected value: %v", err)
		}
		set.Add(s.Name, string(types.KindJSON), shapeOf(v))
	}
	return nil
}

// Observations returns the JSON text of every observation a json sample
// contributes: the content itself, or each value its Select expression
// yields. Errors are annotated like those of Ingest.
func Observations(s types.Sample, queries *cache.QueryCache) ([]string, error) {
	if s.Kind != types.KindJSON {
		return nil, annotate(types.Errorf(types.CodeInvalidInput, "%s samples are not values", s.Kind), s.Name)
	}
	if s.Select != "" {
		values, err := selectValues(queries, s.Content, s.Select)
		if err != nil {
			return nil, annotate(err, s.Name)
		}
		return values, nil
	}
	if _, err := decodeJSON(s.Content); err != nil {
		return nil, annotate(parseError(s.Content, err), s.Name)
	}
	return []string{s.Content}, nil
}

func parseError(src string, err error) *types.Error {
	e := types.Errorf(types.CodeParse, "invalid JSON: %s", err.Error())
	if se, ok := err.(*syntaxError); ok {
		line, col := position(src, se.offset)
		e = e.WithPosition(line, col)
	}
	return e
}

// shapeOf converts a decoded JSON value into a Shape.
func shapeOf(v any) *shape.Shape {
	switch val := v.(type) {
	case nil:
		return shape.NewNull()
	case bool:
		return shape.NewBool()
	case string:
		return shape.NewString()
	case json.Number:
		return numberShape(val)
	case *object:
		fields := make([]shape.Field, 0, len(val.keys))
		for _, k := range val.keys {
			fields = append(fields, shape.Field{Name: k, Shape: shapeOf(val.values[k])})
		}
		return shape.NewObject(fields...)
	case []any:
		elems := make([]*shape.Shape, 0, len(val))
		for _, e := range val {
			elems = append(elems, shapeOf(e))
		}
		return shape.NewArray(elems...)
	}
	return shape.NewAny()
}

// numberShape classifies a JSON number. Whole values that fit in int64 are
// integers, so 1.0 counts as an integer and 1.5 as a number.
func numberShape(n json.Number) *shape.Shape {
	if _, err := n.Int64(); err == nil {
		return shape.NewInteger()
	}
	f, err := n.Float64()
	if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Trunc(f) == f &&
		f >= math.MinInt64 && f < math.MaxInt64 {
		return shape.NewInteger()
	}
	return shape.NewNumber()
}

// selectValues runs a jq expression over the sample and returns each yielded
// value re-encoded as JSON text. gojq objects are unordered, so keys are
// written in the order they first appear in the sample; keys the expression
// invents follow in name order.
func selectValues(queries *cache.QueryCache, content, expression string) ([]string, error) {
	code, err := queries.Compile(expression)
	if err != nil {
		return nil, types.Errorf(types.CodeInvalidInput, "select expression %q", expression).WithCause(err)
	}

	// Validate and locate syntax errors with the ordered decoder first; gojq
	// wants plain encoding/json values.
	doc, err := decodeJSON(content)
	if err != nil {
		return nil, parseError(content, err)
	}
	ranks := make(map[string]int)
	rankKeys(doc, ranks)
	var input any
	if err := json.Unmarshal([]byte(content), &input); err != nil {
		return nil, types.Errorf(types.CodeParse, "invalid JSON: %s", err.Error())
	}

	var out []string
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, types.Errorf(types.CodeInvalidInput, "select expression %q failed", expression).WithCause(err)
		}
		var buf bytes.Buffer
		if err := encodeOrdered(&buf, v, ranks); err != nil {
			return nil, types.Errorf(types.CodeInvalidInput, "select expression %q yielded a non-JSON value", expression).WithCause(err)
		}
		out = append(out, buf.String())
	}

	if len(out) == 0 {
		return nil, types.Errorf(types.CodeInvalidInput, "select expression %q yielded no values", expression)
	}
	return out, nil
}

// rankKeys numbers every object key in v by first appearance.
func rankKeys(v any, ranks map[string]int) {
	switch val := v.(type) {
	case *object:
		for _, k := range val.keys {
			if _, ok := ranks[k]; !ok {
				ranks[k] = len(ranks)
			}
			rankKeys(val.values[k], ranks)
		}
	case []any:
		for _, e := range val {
			rankKeys(e, ranks)
		}
	}
}

// encodeOrdered writes a gojq result as JSON with object keys ordered by
// ranks.
func encodeOrdered(buf *bytes.Buffer, v any, ranks map[string]int) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ri, iok := ranks[keys[i]]
			rj, jok := ranks[keys[j]]
			switch {
			case iok && jok:
				return ri < rj
			case iok != jok:
				return iok
			}
			return keys[i] < keys[j]
		})
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := encodeOrdered(buf, val[k], ranks); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeOrdered(buf, e, ranks); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// describeValue names the JSON type of a decoded value.
func describeValue(v any) string {
	switch v.(type) {
	case *object:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
