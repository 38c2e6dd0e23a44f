package codegen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/pkg/types"
)

func jsonSamples(name string, contents ...string) []types.Sample {
	out := make([]types.Sample, len(contents))
	for i, c := range contents {
		out[i] = types.Sample{Kind: types.KindJSON, Name: name, Content: c}
	}
	return out
}

func tsOnly() types.RenderOptions {
	return types.RenderOptions{Language: types.LangTypeScript, TypesOnly: true}
}

func TestGenerate_MirrorsValueShape(t *testing.T) {
	res, err := Generate(Request{
		Samples: jsonSamples("Root", `{"id": 1, "tags": ["a"], "owner": {"name": "x", "score": 1.5, "active": true}}`),
		Options: tsOnly(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"export interface Root {",
		"    id: number;",
		"    tags: string[];",
		"    owner: Owner;",
		"}",
		"",
		"export interface Owner {",
		"    name: string;",
		"    score: number;",
		"    active: boolean;",
		"}",
	}, res.Lines)
	assert.Equal(t, "Root", res.Root)
	assert.Equal(t, 1, res.SampleCount)
}

func TestGenerate_ConflictingPrimitivesBecomeUnion(t *testing.T) {
	res, err := Generate(Request{Samples: jsonSamples("Root", `{"a": 1}`, `{"a": "x"}`), Options: tsOnly()})
	require.NoError(t, err)
	assert.Contains(t, res.Lines, "    a: number | string;")
	assert.Equal(t, 2, res.SampleCount)

	res, err = Generate(Request{
		Samples: jsonSamples("Root", `{"a": 1}`, `{"a": "x"}`),
		Options: types.RenderOptions{Language: types.LangGo, TypesOnly: true, Indent: "\t"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Lines, "\tInteger *int64")
	assert.Contains(t, res.Lines, "\tString  *string")
}

func TestGenerate_MissingFieldsAreOptional(t *testing.T) {
	res, err := Generate(Request{Samples: jsonSamples("Root", `{"a": 1}`, `{"b": 2}`), Options: tsOnly()})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"export interface Root {",
		"    a?: number;",
		"    b?: number;",
		"}",
	}, res.Lines)

	byPath := map[string]bool{}
	for _, f := range res.Fields {
		byPath[f.Path] = f.Required
	}
	assert.Equal(t, map[string]bool{"a": false, "b": false}, byPath)
}

func TestGenerate_KeyOrderPreserved(t *testing.T) {
	res, err := Generate(Request{Samples: jsonSamples("Root", `{"z": 1, "a": 2, "m": 3}`), Options: tsOnly()})
	require.NoError(t, err)
	assert.Equal(t, []string{"    z: number;", "    a: number;", "    m: number;"}, res.Lines[1:4])
}

func TestGenerate_UnresolvableRef(t *testing.T) {
	res, err := Generate(Request{
		Samples: []types.Sample{{
			Kind:    types.KindSchema,
			Name:    "Root",
			Content: `{"type": "object", "properties": {"x": {"$ref": "#/$defs/Missing"}}}`,
		}},
		Options: tsOnly(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchema), "got %v", err)
	assert.Nil(t, res)
}

func TestGenerate_UnknownLanguageFailsFirst(t *testing.T) {
	res, err := Generate(Request{
		Samples: jsonSamples("Root", `{not json`),
		Options: types.RenderOptions{Language: "cobol"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedLanguage), "options are checked before samples are parsed: %v", err)
	assert.Nil(t, res)
}

func TestGenerate_Idempotent(t *testing.T) {
	req := Request{
		Samples: jsonSamples("Order", `{"id": 1, "items": [{"sku": "a", "qty": 2}], "note": null}`, `{"id": 2, "items": []}`),
		Options: types.RenderOptions{Language: types.LangPython, LeadingComments: []string{"generated"}},
	}
	for _, lang := range types.Languages {
		req.Options.Language = lang
		first, err := Generate(req)
		require.NoError(t, err, lang)
		second, err := Generate(req)
		require.NoError(t, err, lang)
		assert.Equal(t, first.Lines, second.Lines, lang)
	}
}

func TestGenerate_RecursiveSchema(t *testing.T) {
	res, err := Generate(Request{
		Samples: []types.Sample{{
			Kind:    types.KindSchema,
			Name:    "Tree",
			Content: `{"type": "object", "properties": {"value": {"type": "integer"}, "children": {"type": "array", "items": {"$ref": "#"}}}, "required": ["value"]}`,
		}},
		Options: tsOnly(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"export interface Tree {",
		"    value: number;",
		"    children?: Tree[];",
		"}",
	}, res.Lines)
}

// generateWithin fails the test instead of hanging when Generate does not
// return.
func generateWithin(t *testing.T, req Request) (*Result, error) {
	t.Helper()
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Generate(req)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return")
		return nil, nil
	}
}

func TestGenerate_RecursionThroughArraysAndMaps(t *testing.T) {
	tests := []struct {
		name   string
		sample types.Sample
	}{
		{"alias through array", types.Sample{
			Kind: types.KindTypedSource, Language: types.SourceTypeScript, Name: "Tree",
			Content: "type Tree = string | Tree[];",
		}},
		{"schema map of itself", types.Sample{
			Kind: types.KindSchema, Name: "Dict",
			Content: `{"type": "object", "additionalProperties": {"$ref": "#"}}`,
		}},
		{"schema union with array of itself", types.Sample{
			Kind: types.KindSchema, Name: "Nested",
			Content: `{"anyOf": [{"type": "integer"}, {"type": "array", "items": {"$ref": "#"}}]}`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, lang := range types.Languages {
				res, err := generateWithin(t, Request{
					Samples: []types.Sample{tt.sample},
					Options: types.RenderOptions{Language: lang},
				})
				require.NoError(t, err, lang)
				assert.NotEmpty(t, res.Lines, lang)
			}
		})
	}
}

func TestGenerate_MutuallyRecursiveUnionAliases(t *testing.T) {
	sample := types.Sample{
		Kind: types.KindTypedSource, Language: types.SourceTypeScript, Name: "X",
		Content: "type X = null | number | Y;\ntype Y = string | X[];",
	}
	for _, opts := range []types.RenderOptions{{Language: types.LangGo}, tsOnly()} {
		res, err := generateWithin(t, Request{Samples: []types.Sample{sample}, Options: opts})
		require.NoError(t, err, opts.Language)
		assert.NotEmpty(t, res.Lines, opts.Language)
	}
}

func TestGenerate_SelectMergesValues(t *testing.T) {
	queries, err := cache.NewQueryCache(4)
	require.NoError(t, err)
	gen := New(WithQueryCache(queries))

	samples := jsonSamples("Item", `{"items": [{"id": 1}, {"id": 2, "tag": "x"}]}`)
	samples[0].Select = ".items[]"
	res, err := gen.Generate(context.Background(), Request{Samples: samples, Options: tsOnly()})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"export interface Item {",
		"    id: number;",
		"    tag?: string;",
		"}",
	}, res.Lines)
	assert.Equal(t, 1, queries.Len())
}

func TestGenerate_PlaceholderNeedsAllowUntyped(t *testing.T) {
	req := Request{Samples: jsonSamples("Root", `{"tags": []}`), Options: tsOnly()}
	_, err := Generate(req)
	assert.True(t, errors.Is(err, types.ErrUnsupportedFeature))

	req.Options.AllowUntyped = true
	res, err := Generate(req)
	require.NoError(t, err)
	assert.Contains(t, res.Lines, "    tags: any[];")
}

func TestGenerate_RootSelection(t *testing.T) {
	samples := append(jsonSamples("User", `{"id": 1}`), jsonSamples("Post", `{"title": "x"}`)...)

	res, err := Generate(Request{Samples: samples, Options: tsOnly()})
	require.NoError(t, err)
	assert.Equal(t, "User", res.Root)

	res, err = Generate(Request{Samples: samples, Root: "Post", Options: tsOnly()})
	require.NoError(t, err)
	assert.Equal(t, "export interface Post {", res.Lines[0])

	_, err = Generate(Request{Samples: samples, Root: "Missing", Options: tsOnly()})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestGenerate_StrictMode(t *testing.T) {
	_, err := Generate(Request{Samples: jsonSamples("Root", `{"a": 1}`, `{"a": "x"}`), Options: tsOnly(), Strict: true})
	assert.True(t, errors.Is(err, types.ErrUnificationConflict))
}

func TestGenerate_Limits(t *testing.T) {
	gen := New(WithLimits(16, 1))

	_, err := gen.Generate(context.Background(), Request{Samples: jsonSamples("Root", `{}`, `{}`), Options: tsOnly()})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))

	_, err = gen.Generate(context.Background(), Request{Samples: jsonSamples("Root", `{"a_long_key": 12345}`), Options: tsOnly()})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestGenerate_NoSamples(t *testing.T) {
	_, err := Generate(Request{Options: tsOnly()})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Generate(ctx, Request{Samples: jsonSamples("Root", `{"a": 1}`), Options: tsOnly()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	require.Len(t, langs, len(types.Languages))
	for i, c := range langs {
		assert.Equal(t, types.Languages[i], c.Language)
	}
}
