package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/types"
)

func TestGenerate_VerifyAcceptsEverySample(t *testing.T) {
	samples := jsonSamples("Root",
		`{"id": 1, "score": 1.5, "tags": [], "owner": {"name": "x"}, "v": null}`,
		`{"id": 2, "score": 2, "tags": ["a", 1], "owner": {"name": "y", "age": 3}, "v": "s"}`,
		`{"id": 3.0, "extra": {"nested": [[true]]}}`,
	)
	res, err := Generate(Request{
		Samples: samples,
		Options: types.RenderOptions{Language: types.LangTypeScript, TypesOnly: true, AllowUntyped: true},
		Verify:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "export interface Root {", res.Lines[0])
}

func TestGenerate_VerifyWithSelect(t *testing.T) {
	samples := jsonSamples("Item", `{"items": [{"id": 1}, {"id": "two", "tag": "x"}]}`)
	samples[0].Select = ".items[]"
	_, err := Generate(Request{Samples: samples, Options: tsOnly(), Verify: true})
	require.NoError(t, err)
}

func TestGenerate_VerifySkipsDeclarations(t *testing.T) {
	samples := []types.Sample{
		{Kind: types.KindTypedSource, Language: types.SourceTypeScript, Name: "User", Content: "interface User { id: number }"},
		{Kind: types.KindJSON, Name: "Point", Content: `{"x": 1, "y": 2}`},
	}
	_, err := Generate(Request{Samples: samples, Root: "User", Options: tsOnly(), Verify: true})
	require.NoError(t, err)
}

func userType() []types.Sample {
	return []types.Sample{{
		Kind: types.KindSchema,
		Name: "User",
		Content: `{
			"type": "object",
			"properties": {"id": {"type": "integer"}, "email": {"type": "string"}},
			"required": ["id"]
		}`,
	}}
}

func TestCheck_ReportsEachObservation(t *testing.T) {
	values := []types.Sample{
		{Kind: types.KindJSON, Name: "good", Content: `{"id": 1, "email": "a@b.c"}`},
		{Kind: types.KindJSON, Name: "list", Content: `[{"id": 2}, {"id": "3"}, {"email": "x"}]`, Select: ".[]"},
	}
	res, err := New().Check(context.Background(), CheckRequest{Type: userType(), Values: values})
	require.NoError(t, err)

	assert.Equal(t, "User", res.Root)
	assert.False(t, res.Valid)
	require.Len(t, res.Reports, 4)

	assert.Equal(t, Report{Sample: "good", Index: 0, Valid: true, Excerpt: `{"email":"a@b.c","id":1}`}, res.Reports[0])
	assert.True(t, res.Reports[1].Valid)

	invalid := res.Invalid()
	require.Len(t, invalid, 2)
	assert.Equal(t, "list", invalid[0].Sample)
	assert.Equal(t, 1, invalid[0].Index)
	require.Len(t, invalid[0].Errors, 1)
	assert.Contains(t, invalid[0].Errors[0], "/id: ")
	assert.Equal(t, `{"id":"3"}`, invalid[0].Excerpt)
	assert.Equal(t, 2, invalid[1].Index)
}

func TestCheck_AllValid(t *testing.T) {
	res, err := New().Check(context.Background(), CheckRequest{
		Type:   jsonSamples("Point", `{"x": 1, "y": 2}`, `{"x": 1.5, "y": 0}`),
		Values: jsonSamples("p", `{"x": 3, "y": 4.25}`),
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Invalid())
}

func TestCheck_Errors(t *testing.T) {
	gen := New(WithLimits(1<<10, 2))
	ctx := context.Background()

	tests := []struct {
		name string
		req  CheckRequest
		want error
	}{
		{"no values", CheckRequest{Type: userType()}, types.ErrInvalidInput},
		{"too many values", CheckRequest{Type: userType(), Values: jsonSamples("v", `1`, `2`, `3`)}, types.ErrInvalidInput},
		{"value too large", CheckRequest{Type: userType(), Values: jsonSamples("v", `"`+strings.Repeat("a", 2000)+`"`)}, types.ErrInvalidInput},
		{"value not json kind", CheckRequest{Type: userType(), Values: userType()}, types.ErrInvalidInput},
		{"no type", CheckRequest{Values: jsonSamples("v", `{}`)}, types.ErrInvalidInput},
		{"value does not parse", CheckRequest{Type: userType(), Values: jsonSamples("v", `{"id":`)}, types.ErrParse},
		{"unknown root", CheckRequest{Type: userType(), Root: "Nope", Values: jsonSamples("v", `{}`)}, types.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gen.Check(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}
