package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/pkg/shape"
	"github.com/usestring/typepaste/pkg/types"
)

func jsonSample(name, content string) types.Sample {
	return types.Sample{Kind: types.KindJSON, Name: name, Content: content}
}

func TestIngestJSON_PreservesKeyOrder(t *testing.T) {
	set, err := Ingest([]types.Sample{jsonSample("Root", `{"zeta": 1, "alpha": "x", "mid": [true]}`)}, Options{})
	require.NoError(t, err)

	obs := set.Get("Root")
	require.Len(t, obs, 1)
	assert.Equal(t, "{zeta: integer, alpha: string, mid: [boolean]}", obs[0].String())
}

func TestIngestJSON_Numbers(t *testing.T) {
	tests := []struct {
		literal string
		want    shape.Kind
	}{
		{"1", shape.Integer},
		{"-42", shape.Integer},
		{"1.0", shape.Integer},
		{"1e3", shape.Integer},
		{"1.5", shape.Number},
		{"1e400", shape.Number},
		{"18446744073709551616", shape.Number},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			set, err := Ingest([]types.Sample{jsonSample("n", tt.literal)}, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Get("n")[0].Kind)
		})
	}
}

func TestIngestJSON_MultipleSamplesMerge(t *testing.T) {
	set, err := Ingest([]types.Sample{
		jsonSample("Root", `{"a": 1}`),
		jsonSample("Root", `{"b": 2}`),
	}, Options{})
	require.NoError(t, err)
	assert.Len(t, set.Get("Root"), 2)
	assert.Equal(t, []string{"Root"}, set.Names())
}

func TestIngestJSON_ParseErrorPosition(t *testing.T) {
	_, err := Ingest([]types.Sample{jsonSample("Broken", "{\n  \"a\": 1,\n  \"b\": }")}, Options{})
	require.Error(t, err)

	var te *types.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, types.CodeParse, te.Code)
	assert.Equal(t, "Broken", te.Sample)
	assert.Equal(t, 3, te.Line)
	assert.True(t, errors.Is(err, types.ErrParse))
}

func TestIngestJSON_RejectsTrailingData(t *testing.T) {
	_, err := Ingest([]types.Sample{jsonSample("Root", `{"a": 1} {"b": 2}`)}, Options{})
	assert.True(t, errors.Is(err, types.ErrParse))
}

func TestIngestJSON_RejectsEmpty(t *testing.T) {
	_, err := Ingest([]types.Sample{jsonSample("Root", "   ")}, Options{})
	assert.True(t, errors.Is(err, types.ErrParse))
}

func TestIngestJSON_Select(t *testing.T) {
	queries, err := cache.NewQueryCache(8)
	require.NoError(t, err)

	s := jsonSample("Item", `{"items": [{"id": 1}, {"id": 2, "tag": "x"}]}`)
	s.Select = ".items[]"

	set, err := Ingest([]types.Sample{s}, Options{Queries: queries})
	require.NoError(t, err)

	obs := set.Get("Item")
	require.Len(t, obs, 2)
	assert.Equal(t, "{id: integer}", obs[0].String())
	assert.Equal(t, "{id: integer, tag: string}", obs[1].String())
	assert.Equal(t, 1, queries.Len())
}

func TestIngestJSON_SelectKeepsKeyOrder(t *testing.T) {
	s := jsonSample("Item", `{"items": [{"zeta": 1, "alpha": {"y": true, "b": "x"}}]}`)
	s.Select = ".items[]"
	set, err := Ingest([]types.Sample{s}, Options{})
	require.NoError(t, err)
	obs := set.Get("Item")
	require.Len(t, obs, 1)
	assert.Equal(t, "{zeta: integer, alpha: {y: boolean, b: string}}", obs[0].String())

	// Keys built by the expression come after source keys, by name.
	s.Select = ".items[] | {zeta, new: 1, alpha, another: 2}"
	values, err := Observations(s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"zeta":1,"alpha":{"y":true,"b":"x"},"another":2,"new":1}`}, values)
}

func TestIngestJSON_SelectErrors(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		input  string
		expect *types.Error
	}{
		{"syntax", ".items[", `{"items": []}`, types.ErrInvalidInput},
		{"no values", ".items[]", `{"items": []}`, types.ErrInvalidInput},
		{"runtime", ".items.x", `{"items": [1]}`, types.ErrInvalidInput},
		{"bad json", ".", `{"items": `, types.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := jsonSample("Root", tt.input)
			s.Select = tt.expr
			_, err := Ingest([]types.Sample{s}, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expect), "got %v", err)
		})
	}
}

func TestIngest_Validation(t *testing.T) {
	t.Run("no samples", func(t *testing.T) {
		_, err := Ingest(nil, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := Ingest([]types.Sample{jsonSample("", `{}`)}, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Ingest([]types.Sample{jsonSample("Root", `{"a": "0123456789"}`)}, Options{MaxSampleBytes: 8})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Ingest([]types.Sample{{Kind: "xml", Name: "Root", Content: "<a/>"}}, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("repeated schema name", func(t *testing.T) {
		_, err := Ingest([]types.Sample{
			{Kind: types.KindSchema, Name: "Root", Content: `{"type": "string"}`},
			{Kind: types.KindSchema, Name: "Root", Content: `{"type": "string"}`},
		}, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("json after schema", func(t *testing.T) {
		_, err := Ingest([]types.Sample{
			{Kind: types.KindSchema, Name: "Root", Content: `{"type": "string"}`},
			jsonSample("Root", `"x"`),
		}, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("select on schema", func(t *testing.T) {
		_, err := Ingest([]types.Sample{
			{Kind: types.KindSchema, Name: "Root", Content: `{"type": "string"}`, Select: "."},
		}, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("unknown source language", func(t *testing.T) {
		_, err := Ingest([]types.Sample{
			{Kind: types.KindTypedSource, Name: "Root", Content: "x", Language: "rust"},
		}, Options{})
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})
}

func TestPosition(t *testing.T) {
	src := "ab\ncd\nef"
	line, col := position(src, 0)
	assert.Equal(t, [2]int{1, 1}, [2]int{line, col})
	line, col = position(src, 4)
	assert.Equal(t, [2]int{2, 2}, [2]int{line, col})
	line, col = position(src, 100)
	assert.Equal(t, [2]int{3, 3}, [2]int{line, col})
}

func TestDecodeYAML(t *testing.T) {
	v, err := decodeYAML("b: 1\na:\n  - x\n  - 2.5\nc: null\n")
	require.NoError(t, err)
	assert.Equal(t, "{b: integer, a: [string, number], c: null}", shapeOf(v).String())
}

func TestObservations(t *testing.T) {
	obs, err := Observations(jsonSample("Root", `{"a": 1}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a": 1}`}, obs)

	s := jsonSample("Root", `{"items": [{"id": 1}, {"id": 2}]}`)
	s.Select = ".items[]"
	obs, err = Observations(s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"id":1}`, `{"id":2}`}, obs)

	_, err = Observations(jsonSample("Bad", `{"a":`), nil)
	var te *types.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, types.CodeParse, te.Code)
	assert.Equal(t, "Bad", te.Sample)

	_, err = Observations(types.Sample{Kind: types.KindSchema, Name: "S", Content: `{}`}, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}
